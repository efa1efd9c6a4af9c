package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func run(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	h := Middleware(Config{TTL: time.Hour})(func(c echo.Context) error {
		got = IDFromContext(c.Request().Context())
		if c.Get("session_id") != got {
			t.Errorf("expected echo context value to match, got %v", c.Get("session_id"))
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got, rec
}

func TestMiddleware_UsesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/assessment/status", nil)
	req.Header.Set(HeaderName, "chat-42")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-1"})

	sid, rec := run(t, req)
	if sid != "chat-42" {
		t.Errorf("expected header session, got %q", sid)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("expected no cookie when the client supplied a session")
	}
}

func TestMiddleware_UsesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/assessment/status", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-1"})

	sid, _ := run(t, req)
	if sid != "cookie-1" {
		t.Errorf("expected cookie session, got %q", sid)
	}
}

func TestMiddleware_MintsSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/assessment/start", nil)

	sid, rec := run(t, req)
	if len(sid) != 36 {
		t.Fatalf("expected a uuid session, got %q", sid)
	}
	if rec.Header().Get(HeaderName) != sid {
		t.Errorf("expected response header %q, got %q", sid, rec.Header().Get(HeaderName))
	}
	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, CookieName+"="+sid) || !strings.Contains(cookie, "HttpOnly") {
		t.Errorf("unexpected Set-Cookie %q", cookie)
	}
}

func TestMiddleware_RejectsUnsafeHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/assessment/status", nil)
	req.Header.Set(HeaderName, "bad key\nwith newline")

	sid, _ := run(t, req)
	if sid == "bad key\nwith newline" || len(sid) != 36 {
		t.Errorf("expected a freshly minted session, got %q", sid)
	}
}

func TestValid(t *testing.T) {
	if !valid("abc-123_X") {
		t.Error("expected alphanumeric handle to be valid")
	}
	invalid := []string{"", "a:b", "has space", strings.Repeat("a", 129)}
	for _, in := range invalid {
		if valid(in) {
			t.Errorf("expected %q to be invalid", in)
		}
	}
}
