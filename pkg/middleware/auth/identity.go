package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/pkg/tokens"
)

const (
	AccessCookie = "accessToken"
	GuestCookie  = "guestID"

	guestTTL = 30 * 24 * time.Hour
)

// IdentityMiddleware resolves who is calling: an authenticated customer from
// the access token cookie, or a guest bucket identified by a guestID cookie.
type IdentityMiddleware struct {
	JWTSecret []byte
}

func NewIdentityMiddleware(secret []byte) *IdentityMiddleware {
	return &IdentityMiddleware{JWTSecret: secret}
}

func (m *IdentityMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cookie, err := c.Cookie(AccessCookie); err == nil && cookie.Value != "" {
			claims, err := tokens.AccessClaimsFromToken(cookie.Value, m.JWTSecret)
			if err != nil {
				ExpireCookie(c, AccessCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			setUserContext(c, claims)
			return next(c)
		}

		c.Set("guest_id", guestID(c))
		return next(c)
	}
}

func (m *IdentityMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.Identify(m.Authenticated(next))
}

// Authenticated only checks the result of an Identify that already ran.
func (m *IdentityMiddleware) Authenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s, _ := c.Get("user_id").(string); s == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		return next(c)
	}
}

func (m *IdentityMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

func guestID(c echo.Context) string {
	if id, ok := GuestFromCookie(c); ok {
		return id
	}

	id := uuid.NewString()
	SetGuestCookie(c, id)
	return id
}

// GuestFromCookie returns the guest id the caller still carries, if any.
func GuestFromCookie(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(GuestCookie)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func SetGuestCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     GuestCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(guestTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ExpireCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}
