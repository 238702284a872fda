// Package views provides the default HTML components for inkwell. Sites
// that want their own look pass a different ViewFuncs to inkwell.New.
package views

import (
	"bytes"
	"context"
	"html"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/calder/inkwell"
)

// Site carries the site-wide settings the default views need.
type Site struct {
	Name string
	URL  string
}

// Funcs returns the default view set bound to the given site settings.
func (s Site) Funcs() inkwell.ViewFuncs {
	return inkwell.ViewFuncs{
		BlogList:    s.BlogList,
		BlogPost:    s.BlogPost,
		Editor:      s.Editor,
		Login:       s.Login,
		NotFound:    s.NotFound,
		ServerError: s.ServerError,
	}
}

func component(fn func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fn(w)
	})
}

func (s Site) page(title string, body func(b *strings.Builder)) templ.Component {
	return component(func(w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		b.WriteString("<title>" + html.EscapeString(title) + " | " + html.EscapeString(s.Name) + "</title>")
		b.WriteString("<link rel=\"stylesheet\" href=\"/public/style.css\">")
		b.WriteString("</head><body><main>")
		body(&b)
		b.WriteString("</main></body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// BlogList renders the published list, newest first. Signed-in viewers get
// the write affordance.
func (s Site) BlogList(posts []inkwell.Post, viewerID string, siteURL string) templ.Component {
	return s.page(s.Name, func(b *strings.Builder) {
		b.WriteString("<header><h1>" + html.EscapeString(s.Name) + "</h1>")
		if viewerID != "" {
			b.WriteString(`<a class="button" href="/write">New post</a>`)
		} else {
			b.WriteString(`<a href="/login">Sign in</a>`)
		}
		b.WriteString("</header><section class=\"posts\">")
		for _, p := range posts {
			link := "/blog/" + p.Slug
			b.WriteString(`<article class="post-card">`)
			if p.CoverImage != "" {
				b.WriteString(`<img src="` + html.EscapeString(inkwell.ImageURL(p.CoverImage)) + `" alt="" loading="lazy">`)
			}
			b.WriteString(`<h2><a href="` + html.EscapeString(link) + `">` + html.EscapeString(p.Title) + `</a></h2>`)
			if p.Excerpt != "" {
				b.WriteString("<p>" + html.EscapeString(p.Excerpt) + "</p>")
			}
			b.WriteString(`<footer>` + html.EscapeString(p.AuthorName) + ` · ` +
				p.CreatedAt.Format("January 2, 2006") + `</footer>`)
			b.WriteString("</article>")
		}
		if len(posts) == 0 {
			b.WriteString("<p>No posts yet.</p>")
		}
		b.WriteString("</section>")
	})
}

// BlogPost renders a single post. The delete and edit affordances appear
// only for the owning author.
func (s Site) BlogPost(post inkwell.Post, isOwner bool, csrfToken string) templ.Component {
	return s.page(post.Title, func(b *strings.Builder) {
		b.WriteString(`<nav><a href="/blog">&larr; All posts</a></nav>`)
		b.WriteString("<article>")
		if post.CoverImage != "" {
			b.WriteString(`<img class="cover" src="` + html.EscapeString(inkwell.ImageURL(post.CoverImage)) + `" alt="">`)
		}
		b.WriteString("<h1>" + html.EscapeString(post.Title) + "</h1>")
		b.WriteString(`<p class="byline">` + html.EscapeString(post.AuthorName) + ` · ` +
			post.CreatedAt.Format("January 2, 2006"))
		if !post.UpdatedAt.Truncate(time.Minute).Equal(post.CreatedAt.Truncate(time.Minute)) {
			b.WriteString(" · updated " + post.UpdatedAt.Format("January 2, 2006"))
		}
		b.WriteString("</p>")
		var body bytes.Buffer
		renderMarkdown(&body, post.Content)
		b.WriteString(`<div class="content">` + body.String() + `</div>`)
		b.WriteString("</article>")
		if isOwner {
			b.WriteString(`<div class="owner-actions">`)
			b.WriteString(`<a class="button" href="/posts/` + html.EscapeString(post.ID) + `/edit">Edit</a>`)
			b.WriteString(`<form method="post" action="/posts/` + html.EscapeString(post.ID) + `/delete">`)
			b.WriteString(`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrfToken) + `">`)
			b.WriteString(`<button type="submit">Delete</button></form></div>`)
		}
	})
}

// Editor renders the create/edit form. A zero-value post means create; the
// slug field is read-only on edit since slugs are immutable.
func (s Site) Editor(post inkwell.Post, csrfToken string) templ.Component {
	title := "New post"
	action := "/posts"
	if post.ID != "" {
		title = "Edit post"
		action = "/posts/" + post.ID
	}
	return s.page(title, func(b *strings.Builder) {
		b.WriteString("<h1>" + title + "</h1>")
		b.WriteString(`<form method="post" action="` + html.EscapeString(action) + `">`)
		b.WriteString(`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrfToken) + `">`)
		b.WriteString(`<label>Title<input name="title" required value="` + html.EscapeString(post.Title) + `"></label>`)
		if post.ID == "" {
			b.WriteString(`<label>Slug<input name="slug" placeholder="my-first-post" value=""></label>`)
		} else {
			b.WriteString(`<label>Slug<input name="slug" readonly value="` + html.EscapeString(post.Slug) + `"></label>`)
		}
		b.WriteString(`<label>Excerpt<textarea name="excerpt" rows="2">` + html.EscapeString(post.Excerpt) + `</textarea></label>`)
		b.WriteString(`<label>Cover image URL<input name="cover_image" value="` + html.EscapeString(inkwell.ImageURL(post.CoverImage)) + `"></label>`)
		b.WriteString(`<label>Content<textarea name="content" rows="20" required>` + html.EscapeString(post.Content) + `</textarea></label>`)
		b.WriteString(`<button type="submit">Publish</button></form>`)
	})
}

// Login renders the sign-in form, with an optional failure notice.
func (s Site) Login(showError bool, csrfToken string) templ.Component {
	return s.page("Sign in", func(b *strings.Builder) {
		b.WriteString("<h1>Sign in</h1>")
		if showError {
			b.WriteString(`<p class="error">Invalid email or password.</p>`)
		}
		b.WriteString(`<form method="post" action="/login">`)
		b.WriteString(`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrfToken) + `">`)
		b.WriteString(`<label>Email<input type="email" name="email" required></label>`)
		b.WriteString(`<label>Password<input type="password" name="password" required></label>`)
		b.WriteString(`<button type="submit">Sign in</button></form>`)
	})
}

// NotFound renders the terminal not-found state. Unpublished and missing
// posts both land here.
func (s Site) NotFound() templ.Component {
	return s.page("Not found", func(b *strings.Builder) {
		b.WriteString("<h1>404</h1><p>This page doesn't exist.</p>")
		b.WriteString(`<p><a href="/blog">Back to the blog</a></p>`)
	})
}

// ServerError renders the hard-failure page.
func (s Site) ServerError() templ.Component {
	return s.page("Something went wrong", func(b *strings.Builder) {
		b.WriteString("<h1>500</h1><p>Something went wrong. Try again shortly.</p>")
	})
}
