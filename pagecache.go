package inkwell

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// DefaultPageTTL is the regeneration period for rendered pages. It is
// declared independently of the data cache TTL: a page entry can expire and
// re-render from still-fresh data, or be dropped early by the revalidator.
const DefaultPageTTL = time.Hour

// PageCache stores fully rendered responses per route instance. Only
// successful HTML responses to anonymous GET requests are cached, so the
// owner-view variant (delete/edit affordances) is always rendered against
// live session state.
type PageCache struct {
	mu    sync.RWMutex
	pages map[string]*pageEntry
	ttl   time.Duration
}

type pageEntry struct {
	body        []byte
	contentType string
	rendered    time.Time
}

// NewPageCache creates a page cache with the given TTL.
func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{pages: make(map[string]*pageEntry), ttl: ttl}
}

func (pc *PageCache) get(path string) (*pageEntry, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	e, ok := pc.pages[path]
	if !ok || time.Since(e.rendered) >= pc.ttl {
		return nil, false
	}
	return e, true
}

func (pc *PageCache) put(path string, e *pageEntry) {
	pc.mu.Lock()
	pc.pages[path] = e
	pc.mu.Unlock()
}

// Invalidate drops the rendered entry for a path so the next request
// re-renders regardless of remaining TTL.
func (pc *PageCache) Invalidate(path string) {
	pc.mu.Lock()
	delete(pc.pages, path)
	pc.mu.Unlock()
}

// bodyCapture tees the response body so a rendered page can be stored after
// the handler runs.
type bodyCapture struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bodyCapture) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves cached renderings of GET pages and captures fresh ones.
// Requests carrying a session identity bypass the cache entirely.
func (pc *PageCache) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodGet || CurrentUserID(c) != "" {
			return next(c)
		}
		path := c.Request().URL.Path
		if e, ok := pc.get(path); ok {
			return c.Blob(http.StatusOK, e.contentType, e.body)
		}

		capture := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
		c.Response().Writer = capture
		if err := next(c); err != nil {
			return err
		}
		contentType := c.Response().Header().Get(echo.HeaderContentType)
		if capture.status == http.StatusOK && strings.HasPrefix(contentType, echo.MIMETextHTML) {
			pc.put(path, &pageEntry{
				body:        capture.buf.Bytes(),
				contentType: contentType,
				rendered:    time.Now(),
			})
		}
		return nil
	}
}
