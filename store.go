package inkwell

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store wraps a SQLite database and provides CRUD operations for posts and
// users. It is the Content Store behind the cache layer; every read used by
// the public pages filters on published.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately.
	// synchronous=NORMAL is safe with WAL and avoids an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    image TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    cover_image TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1,
    author_id TEXT NOT NULL REFERENCES users(id),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_posts_published_created ON posts(published, created_at DESC);
`)
	return err
}

// Fixed-width UTC timestamp layout so lexicographic ordering in SQL matches
// chronological ordering. RFC3339Nano trims trailing zeros, which breaks
// text comparison.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const postColumns = `p.id, p.slug, p.title, p.excerpt, p.content, p.cover_image,
	p.published, p.author_id, p.created_at, p.updated_at, p.version,
	u.name, u.image`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var published int
	var created, updated string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content,
		&p.CoverImage, &published, &p.AuthorID, &created, &updated,
		&p.Version, &p.AuthorName, &p.AuthorImage); err != nil {
		return Post{}, err
	}
	p.Published = published == 1
	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Post{}, err
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Post{}, err
	}
	return p, nil
}

// ListPublishedPosts returns published posts ordered by creation time
// descending. This is the loader behind the published-posts cache key.
func (s *Store) ListPublishedPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.published = 1 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPublishedPost returns a published post by slug. Unpublished posts are
// indistinguishable from missing ones: both return ErrNotFound.
func (s *Store) GetPublishedPost(slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+`
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.slug = ? AND p.published = 1`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// GetPost returns a post by id regardless of published status, for
// ownership checks in the write actions.
func (s *Store) GetPost(id string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+`
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// CreatePost inserts a new post. The slug must be unique among all posts,
// published or not; a collision returns ErrConflict.
func (s *Store) CreatePost(p Post) (Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt, p.Version = now, now, 1
	published := 0
	if p.Published {
		published = 1
	}
	_, err := s.db.Exec(`INSERT INTO posts
		(id, slug, title, excerpt, content, cover_image, published, author_id, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Content, p.CoverImage, published,
		p.AuthorID, now.Format(timeLayout), now.Format(timeLayout), p.Version)
	if isUniqueViolation(err) {
		return Post{}, ErrConflict
	}
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// UpdatePost replaces the content fields of a post. The slug is never
// touched. The write is a compare-and-swap on version: if a concurrent edit
// bumped it since the caller read the row, ErrConflict is returned and
// nothing changes.
func (s *Store) UpdatePost(id string, version int, in PostInput) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.Exec(`UPDATE posts
		SET title = ?, excerpt = ?, content = ?, cover_image = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		in.Title, in.Excerpt, in.Content, in.CoverImage, now, id, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or the version moved under us.
		var exists int
		if err := s.db.QueryRow(`SELECT 1 FROM posts WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrConflict
	}
	return nil
}

// DeletePost permanently removes a post. Deleting a missing post returns
// ErrNotFound.
func (s *Store) DeletePost(id string) error {
	res, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPosts returns the total number of rows in the posts table.
func (s *Store) CountPosts() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// CreateUser inserts a new user. Email collisions return ErrConflict.
func (s *Store) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, image, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Image, u.PasswordHash, u.CreatedAt.Format(timeLayout))
	if isUniqueViolation(err) {
		return User{}, ErrConflict
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns a user by email for login.
func (s *Store) GetUserByEmail(email string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRow(`SELECT id, name, email, image, password_hash, created_at
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(id string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRow(`SELECT id, name, email, image, password_hash, created_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return User{}, err
	}
	return u, nil
}
