// Package httputil holds small helpers shared by the HTML handlers.
package httputil

import (
	"net/http"
	"net/url"
	"strings"

	dErrors "boards/pkg/domain-errors"
)

// StatusFor maps a domain error code onto an HTTP status.
// Validation failures keep 200 because the form is re-rendered with inline errors.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation:
		return http.StatusOK
	case dErrors.CodeInvalidInput, dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusFound
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LoginRedirectURL builds "<loginPath>?next=<next>" leaving slashes unescaped,
// e.g. /login/?next=/boards/1/new/.
func LoginRedirectURL(loginPath, next string) string {
	if next == "" {
		return loginPath
	}
	escaped := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	return loginPath + "?next=" + escaped
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
// Protocol-relative and absolute URLs are rejected to avoid open redirects.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

// SeeOther redirects with 302 Found, the status browsers follow after a form POST.
func SeeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}
