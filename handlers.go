package inkwell

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func handleHomeRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/blog")
}

// handleBlogList serves the published list, newest first, through the
// published-posts cache key.
func (a *App) handleBlogList(c echo.Context) error {
	posts, err := a.cachedPublishedPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogList(posts, CurrentUserID(c), a.Config.URL))
}

// handleBlogPost serves a single published post through its per-slug cache
// key. A missing or unpublished slug renders the same not-found page, so
// the two are indistinguishable to non-owner readers. The owner check runs
// against live session state on every request, never from cache.
func (a *App) handleBlogPost(c echo.Context) error {
	slug := c.Param("slug")
	cached, err := a.Cache.Get(postCacheKey(slug), a.Config.CacheTTL, func() (any, error) {
		return a.Store.GetPublishedPost(slug)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	post, _ := cached.(Post)
	isOwner := post.AuthorID != "" && post.AuthorID == CurrentUserID(c)
	return Render(c, a.Views.BlogPost(post, isOwner, CsrfToken(c)))
}

func (a *App) handleEditorNew(c echo.Context) error {
	if CurrentUserID(c) == "" {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return Render(c, a.Views.Editor(Post{}, CsrfToken(c)))
}

func (a *App) handleEditorEdit(c echo.Context) error {
	actorID := CurrentUserID(c)
	if actorID == "" {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	post, err := a.Store.GetPost(c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return c.String(http.StatusForbidden, "You can only edit your own posts")
	}
	return Render(c, a.Views.Editor(post, CsrfToken(c)))
}

func postInputFromForm(c echo.Context) PostInput {
	return PostInput{
		Title:      c.FormValue("title"),
		Slug:       c.FormValue("slug"),
		Content:    c.FormValue("content"),
		Excerpt:    c.FormValue("excerpt"),
		CoverImage: c.FormValue("cover_image"),
	}
}

func (a *App) handleCreatePost(c echo.Context) error {
	res := a.Actions.CreatePost(CurrentUserID(c), postInputFromForm(c))
	if !res.Success {
		return actionError(c, res.Err)
	}
	return c.Redirect(http.StatusSeeOther, "/blog/"+res.Slug)
}

func (a *App) handleUpdatePost(c echo.Context) error {
	res := a.Actions.UpdatePost(CurrentUserID(c), c.Param("id"), postInputFromForm(c))
	if !res.Success {
		return actionError(c, res.Err)
	}
	return c.Redirect(http.StatusSeeOther, "/blog/"+res.Slug)
}

func (a *App) handleDeletePost(c echo.Context) error {
	res := a.Actions.DeletePost(CurrentUserID(c), c.Param("id"))
	if !res.Success {
		return actionError(c, res.Err)
	}
	return c.Redirect(http.StatusSeeOther, "/blog")
}

// actionError maps a write action's error to an HTTP response. The caller
// owns presentation; these are plain-text statuses.
func actionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, ErrForbidden):
		return c.String(http.StatusForbidden, "You can only modify your own posts")
	case errors.Is(err, ErrNotFound):
		return c.String(http.StatusNotFound, "Post not found")
	case errors.Is(err, ErrConflict):
		return c.String(http.StatusConflict, "A post with this slug already exists")
	case errors.Is(err, ErrValidation):
		return c.String(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

// handleRobots generates robots.txt dynamically using the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /write\n\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.cachedPublishedPosts()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.cachedPublishedPosts()
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) cachedPublishedPosts() ([]Post, error) {
	cached, err := a.Cache.Get(cacheKeyPublishedPosts, a.Config.CacheTTL, func() (any, error) {
		return a.Store.ListPublishedPosts()
	})
	if err != nil {
		return nil, err
	}
	posts, _ := cached.([]Post)
	return posts, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
