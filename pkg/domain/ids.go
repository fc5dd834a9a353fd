// Package domain holds the identifier primitives shared across bounded contexts.
//
// Board, topic, post and user identifiers are positive int64 surrogate keys
// assigned by the database. Session identifiers are random UUIDs. Each kind has
// its own type so a TopicID can never be passed where a BoardID is expected.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "boards/pkg/domain-errors"
)

type (
	BoardID int64
	TopicID int64
	PostID  int64
	UserID  int64
)

// SessionID identifies an authenticated browser session.
type SessionID uuid.UUID

func (id BoardID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id TopicID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id PostID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id UserID) String() string  { return strconv.FormatInt(int64(id), 10) }

func (id SessionID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the session id is the zero UUID.
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewSessionID returns a random session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func ParseBoardID(s string) (BoardID, error) {
	v, err := parseKey(s, "board id")
	return BoardID(v), err
}

func ParseTopicID(s string) (TopicID, error) {
	v, err := parseKey(s, "topic id")
	return TopicID(v), err
}

func ParsePostID(s string) (PostID, error) {
	v, err := parseKey(s, "post id")
	return PostID(v), err
}

func ParseUserID(s string) (UserID, error) {
	v, err := parseKey(s, "user id")
	return UserID(v), err
}

// ParseSessionID parses a canonical, non-nil UUID.
func ParseSessionID(s string) (SessionID, error) {
	if s == "" {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid session id")
	}
	if parsed == uuid.Nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id cannot be nil")
	}
	return SessionID(parsed), nil
}

// parseKey accepts only plain decimal digits naming a positive int64.
func parseKey(s, name string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" is required")
	}
	if len(s) > 19 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+name)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be positive")
	}
	return v, nil
}
