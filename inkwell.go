// Package inkwell is a server-rendered blog platform built with Go, Echo,
// and templ. Authenticated users create, edit, and delete posts; anonymous
// visitors browse a cached list and read individual posts. Rendered pages
// and the data reads behind them are cached with a one-hour TTL, and every
// successful write invalidates exactly the routes whose output changed.
//
// Users provide templ components via the ViewFuncs struct; inkwell owns the
// handler logic, caching, middleware, and database operations.
package inkwell

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	_ "modernc.org/sqlite"
)

// ViewFuncs holds user-provided templ components that the platform calls
// when rendering pages. This keeps all visual presentation outside the
// core: the handlers decide what data a page gets, the views decide how it
// looks.
type ViewFuncs struct {
	BlogList    func(posts []Post, viewerID string, siteURL string) templ.Component
	BlogPost    func(post Post, isOwner bool, csrfToken string) templ.Component
	Editor      func(post Post, csrfToken string) templ.Component
	Login       func(showError bool, csrfToken string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central inkwell application. It wires together the store, the
// data and page caches, the revalidation dispatcher, the write actions, and
// the user-provided templates. Construct it in your composition root; there
// is no ambient global state.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Store   *Store
	Cache   *Cache
	Pages   *PageCache
	Reval   *Revalidator
	Actions *Actions
	Views   ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates an inkwell App with the given configuration and views.
func New(cfg Config, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, caches, middleware, and routes, and
// starts the server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) init() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("inkwell: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("inkwell: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewCache()
	a.Pages = NewPageCache(a.Config.PageTTL)
	a.Reval = NewRevalidator(a.Cache, a.Pages)
	a.Actions = NewActions(a.Store, a.Reval)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Read routes, served through the page cache.
	e.GET("/", handleHomeRedirect)
	e.GET("/blog", a.handleBlogList, a.Pages.Middleware)
	e.GET("/blog/:slug", a.handleBlogPost, a.Pages.Middleware)

	// Auth routes.
	e.GET("/login", a.handleLoginPage)
	e.POST("/login", a.handleLogin)
	e.POST("/register", a.handleRegister)
	e.POST("/logout", handleLogout)

	// Write routes.
	e.GET("/write", a.handleEditorNew)
	e.GET("/posts/:id/edit", a.handleEditorEdit)
	e.POST("/posts", a.handleCreatePost)
	e.POST("/posts/:id", a.handleUpdatePost)
	e.POST("/posts/:id/delete", a.handleDeletePost)
	e.POST("/images/upload", a.handleImageUpload)
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Echo.Shutdown(ctx); err != nil {
		return err
	}
	return a.Close()
}

// Close releases resources. Call when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
