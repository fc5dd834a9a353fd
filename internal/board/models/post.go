package models

import (
	"strings"
	"time"

	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/forms"
)

// Post is a single message in a topic. UpdatedAt and UpdatedBy stay nil until
// a post is edited.
type Post struct {
	ID        id.PostID
	TopicID   id.TopicID
	Message   string
	CreatedBy id.UserID
	CreatedAt time.Time
	UpdatedAt *time.Time
	UpdatedBy *id.UserID
}

func NewPost(topicID id.TopicID, message string, author id.UserID, now time.Time) (*Post, error) {
	if topicID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "post requires a topic")
	}
	if author <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "post requires an author")
	}
	return &Post{TopicID: topicID, Message: message, CreatedBy: author, CreatedAt: now}, nil
}

// PostView is a post joined with its author's username.
type PostView struct {
	Post
	AuthorName string
}

// ReplyRequest is the form input for replying to a topic.
type ReplyRequest struct {
	Message string
}

func (r *ReplyRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
}

func (r *ReplyRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	if errs.Required("message", r.Message) {
		errs.MaxLength("message", r.Message, MaxMessageLength)
	}
	return errs
}

// ReplyResult locates a freshly written reply inside the paginated topic.
type ReplyResult struct {
	Post *Post
	Page int
}
