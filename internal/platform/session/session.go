// Package session resolves the anonymous session handle a chat client uses to
// keep its place in the questionnaire.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderName = "X-Session-ID"
	CookieName = "donor_session"
)

type contextKey string

const sessionKey contextKey = "session_id"

type Config struct {
	TTL    time.Duration
	Secure bool
}

// Middleware reads the session handle from the X-Session-ID header or the
// donor_session cookie. A request carrying neither gets a fresh UUID, returned
// both as a cookie and in the response header.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := fromRequest(c.Request())
			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Response().Header().Set(HeaderName, sid)
			c.Set("session_id", sid)
			c.SetRequest(c.Request().WithContext(WithID(c.Request().Context(), sid)))
			return next(c)
		}
	}
}

func fromRequest(r *http.Request) string {
	if sid := r.Header.Get(HeaderName); valid(sid) {
		return sid
	}
	if ck, err := r.Cookie(CookieName); err == nil && valid(ck.Value) {
		return ck.Value
	}
	return ""
}

// valid bounds the handle so it is safe to use as a Redis key and a column value.
func valid(sid string) bool {
	if sid == "" || len(sid) > 128 {
		return false
	}
	for _, r := range sid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey, sid)
}

// IDFromContext returns the session handle, or "" outside a session.
func IDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}
