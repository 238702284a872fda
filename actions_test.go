package inkwell

import (
	"errors"
	"testing"
	"time"
)

type testEnv struct {
	store   *Store
	cache   *Cache
	pages   *PageCache
	actions *Actions
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := setupTestStore(t)
	cache := NewCache()
	pages := NewPageCache(time.Hour)
	reval := NewRevalidator(cache, pages)
	return &testEnv{
		store:   store,
		cache:   cache,
		pages:   pages,
		actions: NewActions(store, reval),
	}
}

func TestCreatePostReadBackVerbatim(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	res := env.actions.CreatePost(author.ID, PostInput{
		Title:   "Hello World",
		Slug:    "hello-world",
		Content: "Body text.",
		Excerpt: "A greeting.",
	})
	if !res.Success {
		t.Fatalf("CreatePost failed: %v", res.Err)
	}
	if res.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", res.Slug)
	}

	// Read directly from the store, bypassing the cache.
	got, err := env.store.GetPublishedPost("hello-world")
	if err != nil {
		t.Fatalf("GetPublishedPost failed: %v", err)
	}
	if !got.Published {
		t.Error("created posts must be published immediately")
	}
	if got.Title != "Hello World" || got.Content != "Body text." || got.Excerpt != "A greeting." {
		t.Errorf("fields not stored verbatim: %+v", got)
	}
	if got.AuthorID != author.ID {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, author.ID)
	}
}

func TestCreatePostSlugFromTitle(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	res := env.actions.CreatePost(author.ID, PostInput{Title: "My First Post!", Content: "c"})
	if !res.Success {
		t.Fatalf("CreatePost failed: %v", res.Err)
	}
	if res.Slug != "my-first-post" {
		t.Errorf("Slug = %q, want my-first-post", res.Slug)
	}
}

func TestCreatePostConflictLeavesStoreUnchanged(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	if res := env.actions.CreatePost(author.ID, PostInput{Title: "A", Slug: "taken", Content: "c"}); !res.Success {
		t.Fatalf("CreatePost failed: %v", res.Err)
	}
	before, _ := env.store.CountPosts()

	res := env.actions.CreatePost(author.ID, PostInput{Title: "B", Slug: "taken", Content: "c"})
	if res.Success || !errors.Is(res.Err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got success=%v err=%v", res.Success, res.Err)
	}

	after, _ := env.store.CountPosts()
	if before != after {
		t.Errorf("store changed on conflict: %d -> %d rows", before, after)
	}
}

func TestWriteActionsRequireSession(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")
	created := env.actions.CreatePost(author.ID, PostInput{Title: "T", Slug: "t", Content: "c"})
	post, _ := env.store.GetPublishedPost(created.Slug)

	cases := []struct {
		name string
		run  func() ActionResult
	}{
		{"create", func() ActionResult {
			return env.actions.CreatePost("", PostInput{Title: "X", Slug: "x", Content: "c"})
		}},
		{"update", func() ActionResult {
			return env.actions.UpdatePost("", post.ID, PostInput{Title: "X", Content: "c"})
		}},
		{"delete", func() ActionResult {
			return env.actions.DeletePost("", post.ID)
		}},
	}
	for _, tc := range cases {
		res := tc.run()
		if res.Success || !errors.Is(res.Err, ErrUnauthenticated) {
			t.Errorf("%s without session: expected ErrUnauthenticated, got success=%v err=%v", tc.name, res.Success, res.Err)
		}
	}
}

func TestUpdateAndDeleteForbiddenForNonOwner(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.store, "Sarah", "sarah@example.com")
	stranger := createTestUser(t, env.store, "Mike", "mike@example.com")

	created := env.actions.CreatePost(owner.ID, PostInput{Title: "Mine", Slug: "mine", Content: "original"})
	if !created.Success {
		t.Fatalf("CreatePost failed: %v", created.Err)
	}
	post, _ := env.store.GetPublishedPost("mine")

	res := env.actions.UpdatePost(stranger.ID, post.ID, PostInput{Title: "Stolen", Content: "x"})
	if res.Success || !errors.Is(res.Err, ErrForbidden) {
		t.Fatalf("update by non-owner: expected ErrForbidden, got success=%v err=%v", res.Success, res.Err)
	}
	res = env.actions.DeletePost(stranger.ID, post.ID)
	if res.Success || !errors.Is(res.Err, ErrForbidden) {
		t.Fatalf("delete by non-owner: expected ErrForbidden, got success=%v err=%v", res.Success, res.Err)
	}

	// Row unchanged.
	got, err := env.store.GetPublishedPost("mine")
	if err != nil {
		t.Fatalf("post should still exist: %v", err)
	}
	if got.Title != "Mine" || got.Content != "original" {
		t.Errorf("row mutated by forbidden request: %+v", got)
	}
}

func TestUpdateValidation(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")
	created := env.actions.CreatePost(author.ID, PostInput{Title: "T", Slug: "t", Content: "c"})
	post, _ := env.store.GetPublishedPost(created.Slug)

	res := env.actions.UpdatePost(author.ID, post.ID, PostInput{Title: "", Content: "c"})
	if res.Success || !errors.Is(res.Err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty title, got success=%v err=%v", res.Success, res.Err)
	}
	res = env.actions.UpdatePost(author.ID, post.ID, PostInput{Title: "T", Content: "  "})
	if res.Success || !errors.Is(res.Err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty content, got success=%v err=%v", res.Success, res.Err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	res := env.actions.UpdatePost(author.ID, "no-such-id", PostInput{Title: "T", Content: "c"})
	if res.Success || !errors.Is(res.Err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got success=%v err=%v", res.Success, res.Err)
	}
}

// After a successful update the next cache read returns the new fields even
// though the old entry's TTL had not expired.
func TestUpdateInvalidatesCachedPost(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	created := env.actions.CreatePost(author.ID, PostInput{Title: "Hello World", Slug: "hello-world", Content: "c"})
	if !created.Success {
		t.Fatalf("CreatePost failed: %v", created.Err)
	}

	loadPost := func() (any, error) { return env.store.GetPublishedPost("hello-world") }

	// Prime the cache with a long TTL.
	cached, err := env.cache.Get(postCacheKey("hello-world"), time.Hour, loadPost)
	if err != nil {
		t.Fatalf("cache Get failed: %v", err)
	}
	if cached.(Post).Title != "Hello World" {
		t.Fatalf("unexpected primed title %q", cached.(Post).Title)
	}

	post, _ := env.store.GetPublishedPost("hello-world")
	res := env.actions.UpdatePost(author.ID, post.ID, PostInput{Title: "Hello Again", Content: "c"})
	if !res.Success {
		t.Fatalf("UpdatePost failed: %v", res.Err)
	}

	cached, err = env.cache.Get(postCacheKey("hello-world"), time.Hour, loadPost)
	if err != nil {
		t.Fatalf("cache Get failed: %v", err)
	}
	if got := cached.(Post).Title; got != "Hello Again" {
		t.Errorf("cache served stale title %q after update", got)
	}
}

func TestCreateInvalidatesListOnly(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	if res := env.actions.CreatePost(author.ID, PostInput{Title: "First", Slug: "first", Content: "c"}); !res.Success {
		t.Fatalf("CreatePost failed: %v", res.Err)
	}

	listLoads := 0
	loadList := func() (any, error) {
		listLoads++
		return env.store.ListPublishedPosts()
	}
	if _, err := env.cache.Get(cacheKeyPublishedPosts, time.Hour, loadList); err != nil {
		t.Fatalf("cache Get failed: %v", err)
	}

	if res := env.actions.CreatePost(author.ID, PostInput{Title: "Second", Slug: "second", Content: "c"}); !res.Success {
		t.Fatalf("CreatePost failed: %v", res.Err)
	}

	cached, err := env.cache.Get(cacheKeyPublishedPosts, time.Hour, loadList)
	if err != nil {
		t.Fatalf("cache Get failed: %v", err)
	}
	if listLoads != 2 {
		t.Errorf("list loader invoked %d times, want 2 (reload after create)", listLoads)
	}
	posts := cached.([]Post)
	if len(posts) != 2 {
		t.Errorf("list has %d posts, want 2", len(posts))
	}
}

func TestDeleteInvalidatesListAndSlug(t *testing.T) {
	env := setupTestEnv(t)
	author := createTestUser(t, env.store, "Sarah", "sarah@example.com")

	created := env.actions.CreatePost(author.ID, PostInput{Title: "Doomed", Slug: "doomed", Content: "c"})
	if !created.Success {
		t.Fatalf("CreatePost failed: %v", created.Err)
	}
	post, _ := env.store.GetPublishedPost("doomed")

	loadPost := func() (any, error) { return env.store.GetPublishedPost("doomed") }
	if _, err := env.cache.Get(postCacheKey("doomed"), time.Hour, loadPost); err != nil {
		t.Fatalf("cache Get failed: %v", err)
	}

	if res := env.actions.DeletePost(author.ID, post.ID); !res.Success {
		t.Fatalf("DeletePost failed: %v", res.Err)
	}

	// The next read resolves not-found at the store, not from the cache.
	_, err := env.cache.Get(postCacheKey("doomed"), time.Hour, loadPost)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
