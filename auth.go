package inkwell

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "inkwell_session"

// CurrentUserID returns the signed-in user's id, or "" when no valid
// session is present. Every write action and the owner-view check consult
// this live; the result is never cached.
func CurrentUserID(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	id, _ := sess.Values["user_id"].(string)
	return id
}

func setUserSession(c echo.Context, userID string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["user_id"] = userID
	return sess.Save(c.Request(), c.Response())
}

func clearUserSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))
	password := c.FormValue("password")

	user, err := a.Store.GetUserByEmail(email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, ErrNotFound) ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		a.loginLimiter.Record(c.RealIP())
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(true, CsrfToken(c)))
	}
	if err := setUserSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/blog")
}

func (a *App) handleRegister(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))
	password := c.FormValue("password")
	if name == "" || email == "" || len(password) < 8 {
		return c.String(http.StatusBadRequest, "Name, email, and a password of at least 8 characters are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := a.Store.CreateUser(User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, ErrConflict) {
		return c.String(http.StatusConflict, "An account with this email already exists")
	}
	if err != nil {
		return err
	}
	if err := setUserSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/blog")
}

func (a *App) handleLoginPage(c echo.Context) error {
	if CurrentUserID(c) != "" {
		return c.Redirect(http.StatusSeeOther, "/blog")
	}
	return Render(c, a.Views.Login(false, CsrfToken(c)))
}

func handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/blog")
}
