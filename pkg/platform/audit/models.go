package audit

import (
	"context"
	"time"

	id "boards/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryContent covers writes that change what other members see:
	// boards, topics and posts.
	CategoryContent EventCategory = "content"

	// CategorySecurity covers events relevant to account security monitoring.
	// Examples: failed logins, revoked sessions, credential changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	RequestID string
	IP        string
}

type AuditEvent string

const (
	// Account events
	EventUserCreated    AuditEvent = "user_created"
	EventAccountUpdated AuditEvent = "account_updated"
	EventSessionCreated AuditEvent = "session_created"
	EventSessionRevoked AuditEvent = "session_revoked"
	EventAuthFailed     AuditEvent = "auth_failed"

	// Content events
	EventBoardCreated AuditEvent = "board_created"
	EventTopicCreated AuditEvent = "topic_created"
	EventPostCreated  AuditEvent = "post_created"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:    CategorySecurity,
	EventAccountUpdated: CategorySecurity,
	EventSessionRevoked: CategorySecurity,
	EventAuthFailed:     CategorySecurity,

	EventBoardCreated: CategoryContent,
	EventTopicCreated: CategoryContent,
	EventPostCreated:  CategoryContent,

	EventSessionCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
