package inkwell

import "time"

// Post is the core content type stored in SQLite and rendered by templates.
// Content is markdown, rendered to HTML at render time. CoverImage holds a
// CDN-relative path (base URL stripped before persisting).
type Post struct {
	ID         string
	Slug       string
	Title      string
	Excerpt    string
	Content    string
	CoverImage string
	Published  bool
	AuthorID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int

	// Denormalized author fields, populated on reads.
	AuthorName  string
	AuthorImage string
}

// User is a registered author. A user owns zero or more posts; ownership is
// fixed at post creation and gates update/delete.
type User struct {
	ID           string
	Name         string
	Email        string
	Image        string
	PasswordHash string
	CreatedAt    time.Time
}

// PostInput carries the writable fields of a post through the write actions.
// Slug is only honored on create; updates never alter it.
type PostInput struct {
	Title      string
	Slug       string
	Content    string
	Excerpt    string
	CoverImage string
}
