package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lifeline/donor-assistant/internal/platform/auth"
)

// AuditEntry records one access to stored health answers.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	SessionID  string
	Resource   string
	ProfileID  string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// auditPrefixes lists routes that return a stored profile or data derived
// from one.
var auditPrefixes = []struct {
	prefix   string
	resource string
}{
	{"/api/v1/profiles", "profile"},
	{"/api/v1/reports", "measures"},
	{"/api/report/", "report"},
	{"/download-report/", "report_download"},
}

// Audit logs access to profile, report and measure routes after the handler
// runs. A failing recorder never fails the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			resource, ok := auditResource(path)
			if !ok {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Resource:   resource,
				ProfileID:  extractProfileID(path),
				Action:     httpMethodToAction(req.Method),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
				UserID:     auth.UserIDFromContext(req.Context()),
				UserRoles:  auth.RolesFromContext(req.Context()),
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.SessionID, _ = c.Get("session_id").(string)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "profile_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("session_id", entry.SessionID).
				Str("resource", entry.Resource).
				Str("profile_id", entry.ProfileID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("profile_access")

			return err
		}
	}
}

func auditResource(path string) (string, bool) {
	for _, p := range auditPrefixes {
		if strings.HasPrefix(path, p.prefix) {
			return p.resource, true
		}
	}
	return "", false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractProfileID returns the first UUID path segment, if any.
func extractProfileID(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if isUUIDLike(seg) {
			return seg
		}
	}
	return ""
}

func isUUIDLike(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
