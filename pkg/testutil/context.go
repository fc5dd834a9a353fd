package testutil

import (
	"net/http"

	id "boards/pkg/domain"
	"boards/pkg/requestcontext"
)

// WithCaller attaches a caller to the request context.
// This simulates what the session middleware does for authenticated requests.
func WithCaller(req *http.Request, caller id.Caller) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithUser attaches an authenticated caller with a fresh session ID.
func WithUser(req *http.Request, userID id.UserID, username string) *http.Request {
	return WithCaller(req, id.Caller{UserID: userID, Username: username, SessionID: id.NewSessionID()})
}
