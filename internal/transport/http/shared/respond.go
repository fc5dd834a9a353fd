// Package shared holds the response helpers used by every HTML handler.
package shared

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"boards/internal/web/views"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/httputil"
	"boards/pkg/requestcontext"
)

const LoginPath = "/login/"

// Render writes c as an HTML page with the given status.
func Render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil && logger != nil {
		logger.ErrorContext(r.Context(), "failed to render page",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}

// NotFound renders the 404 page.
func NotFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Render(w, r, logger, http.StatusNotFound, views.NotFound())
}

// WriteError maps a domain error onto a page. Validation errors are handled by
// the caller, which re-renders its form; reaching here with one is a bug and
// is reported as a server error.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch code := dErrors.CodeOf(err); code {
	case dErrors.CodeNotFound, dErrors.CodeInvalidInput:
		NotFound(w, r, logger)
	case dErrors.CodeUnauthorized:
		httputil.SeeOther(w, r, httputil.LoginRedirectURL(LoginPath, r.URL.RequestURI()))
	case dErrors.CodeForbidden:
		Render(w, r, logger, http.StatusForbidden, views.NotFound())
	default:
		if logger != nil {
			logger.ErrorContext(r.Context(), "request failed",
				"error", err,
				"code", string(code),
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(r.Context()),
			)
		}
		status := httputil.StatusFor(code)
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		Render(w, r, logger, status, views.ServerError())
	}
}
