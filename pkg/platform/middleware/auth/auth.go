package auth

import (
	"context"
	"log/slog"
	"net/http"

	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/httputil"
	"boards/pkg/requestcontext"
)

// Authenticator resolves a session cookie value into the caller it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (id.Caller, error)
}

// SessionCookie names the session cookie and the attributes it is written
// with. Setting and clearing use the same attributes.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Clear expires the cookie in the browser.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadSession resolves the session cookie, when present, and stores the caller
// in the request context. Requests without a valid session continue
// anonymously. Only a cookie rejected as unauthorized is cleared; any other
// failure keeps it.
func LoadSession(authenticator Authenticator, sessionCookie SessionCookie, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie.Name)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			caller, err := authenticator.Authenticate(ctx, cookie.Value)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.DebugContext(ctx, "discarding invalid session cookie",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					sessionCookie.Clear(w)
				} else {
					logger.ErrorContext(ctx, "failed to resolve session",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}

// RequireLogin redirects anonymous callers to loginPath, carrying the requested
// path in the next query parameter.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requestcontext.Caller(r.Context()).IsAuthenticated() {
				httputil.SeeOther(w, r, httputil.LoginRedirectURL(loginPath, r.URL.RequestURI()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
