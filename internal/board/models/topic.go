package models

import (
	"strings"
	"time"

	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/forms"
)

// Topic is a thread of posts inside a board.
//
// Invariants:
//   - BoardID and StarterID are set and never change
//   - A stored topic always has at least one post
//   - LastUpdated is bumped by every reply
type Topic struct {
	ID          id.TopicID
	BoardID     id.BoardID
	Subject     string
	StarterID   id.UserID
	CreatedAt   time.Time
	LastUpdated time.Time
}

// NewTopic builds a topic started by starter at now.
func NewTopic(boardID id.BoardID, subject string, starter id.UserID, now time.Time) (*Topic, error) {
	if boardID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "topic requires a board")
	}
	if starter <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "topic requires a starter")
	}
	return &Topic{
		BoardID:     boardID,
		Subject:     subject,
		StarterID:   starter,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

// TopicSummary is a topic row on a board's topic list.
type TopicSummary struct {
	Topic
	StarterName string
	Replies     int
}

// NewTopicRequest is the form input for starting a topic.
type NewTopicRequest struct {
	Subject string
	Message string
}

func (r *NewTopicRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *NewTopicRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	if errs.Required("subject", r.Subject) {
		errs.MaxLength("subject", r.Subject, MaxSubjectLength)
	}
	if errs.Required("message", r.Message) {
		errs.MaxLength("message", r.Message, MaxMessageLength)
	}
	return errs
}

// TopicContext is a topic together with the board it belongs to.
type TopicContext struct {
	Board *Board
	Topic *Topic
}
