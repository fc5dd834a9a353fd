package service

import (
	"context"
	"time"

	id "boards/pkg/domain"
	audit "boards/pkg/platform/audit"
	"boards/pkg/requestcontext"
)

func (s *Service) emitAudit(ctx context.Context, publisher AuditPublisher, userID id.UserID, event audit.AuditEvent) error {
	if publisher == nil {
		return nil
	}
	return publisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   "user:" + userID.String(),
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
}

// publishEvent sends a session event. Delivery failures are logged only.
func (s *Service) publishEvent(ctx context.Context, event audit.Event) {
	if s.eventPublisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.IP = requestcontext.ClientIP(ctx)
	if err := s.eventPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}

func (s *Service) incrementUsersCreated() {
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
}

func (s *Service) incrementLoginsFailed() {
	if s.metrics != nil {
		s.metrics.IncrementLoginsFailed()
	}
}

func (s *Service) incrementSessionsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementSessionsCreated()
	}
}

func (s *Service) observeLogin(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(start)
	}
}
