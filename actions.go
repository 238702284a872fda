package inkwell

import (
	"errors"
	"strings"
)

// Actions implements the write path: authenticate, authorize, mutate,
// revalidate. Each method is a single-shot transition producing a
// structured ActionResult; the session check runs before any store access
// so a rejected request never partially mutates.
type Actions struct {
	store *Store
	reval *Revalidator
}

// NewActions wires the write actions to the store and the revalidation
// dispatcher.
func NewActions(store *Store, reval *Revalidator) *Actions {
	return &Actions{store: store, reval: reval}
}

// CreatePost creates a published post authored by actorID. The slug must be
// unique among all posts; a collision fails with ErrConflict and leaves the
// store unchanged.
func (a *Actions) CreatePost(actorID string, in PostInput) ActionResult {
	if actorID == "" {
		return failure(ErrUnauthenticated)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Title == "" {
		return failure(validationErr("title"))
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	if in.Slug == "" {
		return failure(validationErr("slug"))
	}
	if strings.TrimSpace(in.Content) == "" {
		return failure(validationErr("content"))
	}

	post, err := a.store.CreatePost(Post{
		Slug:       in.Slug,
		Title:      in.Title,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: StripCDNBase(in.CoverImage),
		Published:  true,
		AuthorID:   actorID,
	})
	if errors.Is(err, ErrConflict) {
		return failure(ErrConflict)
	}
	if err != nil {
		return failure(upstreamErr("create post", err))
	}

	a.reval.PostCreated()
	return ActionResult{Success: true, Slug: post.Slug}
}

// UpdatePost replaces the content fields of the post. Only the owning
// author may update; the slug is never altered. The write is guarded by the
// post's version counter, so an edit that raced another writer fails with
// ErrConflict instead of silently losing the other update.
func (a *Actions) UpdatePost(actorID, postID string, in PostInput) ActionResult {
	if actorID == "" {
		return failure(ErrUnauthenticated)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return failure(validationErr("title"))
	}
	if strings.TrimSpace(in.Content) == "" {
		return failure(validationErr("content"))
	}

	post, err := a.store.GetPost(postID)
	if errors.Is(err, ErrNotFound) {
		return failure(ErrNotFound)
	}
	if err != nil {
		return failure(upstreamErr("load post", err))
	}
	if post.AuthorID != actorID {
		return failure(ErrForbidden)
	}

	in.CoverImage = StripCDNBase(in.CoverImage)
	if err := a.store.UpdatePost(postID, post.Version, in); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return failure(ErrNotFound)
		case errors.Is(err, ErrConflict):
			return failure(ErrConflict)
		default:
			return failure(upstreamErr("update post", err))
		}
	}

	a.reval.PostUpdated(post.Slug)
	return ActionResult{Success: true, Slug: post.Slug}
}

// DeletePost permanently removes the post. Only the owning author may
// delete; there is no soft delete.
func (a *Actions) DeletePost(actorID, postID string) ActionResult {
	if actorID == "" {
		return failure(ErrUnauthenticated)
	}

	post, err := a.store.GetPost(postID)
	if errors.Is(err, ErrNotFound) {
		return failure(ErrNotFound)
	}
	if err != nil {
		return failure(upstreamErr("load post", err))
	}
	if post.AuthorID != actorID {
		return failure(ErrForbidden)
	}

	if err := a.store.DeletePost(postID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(ErrNotFound)
		}
		return failure(upstreamErr("delete post", err))
	}

	a.reval.PostDeleted(post.Slug)
	return ActionResult{Success: true, Slug: post.Slug}
}
