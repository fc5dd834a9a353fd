// Package session stores signed-in browser sessions.
//
// Two implementations share one contract: InMemorySessionStore for tests and
// single-process setups, RedisStore when REDIS_URL is configured. Records
// outlive revocation until their natural expiry so a revoked token keeps
// failing with a revocation rather than a not-found.
package session

import "errors"

// ErrSessionRevoked is returned when revoking a session that was already revoked.
var ErrSessionRevoked = errors.New("session already revoked")
