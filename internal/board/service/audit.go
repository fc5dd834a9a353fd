package service

import (
	"context"
	"time"

	id "boards/pkg/domain"
	audit "boards/pkg/platform/audit"
	"boards/pkg/requestcontext"
)

func (s *Service) emitAudit(ctx context.Context, userID id.UserID, event audit.AuditEvent, subject string) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   subject,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
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

func (s *Service) incrementTopicsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementTopicsCreated()
	}
}

func (s *Service) incrementPostsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementPostsCreated()
	}
}

func (s *Service) observeStartTopic(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStartTopic(start)
	}
}

func (s *Service) observeReply(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveReply(start)
	}
}

func (s *Service) observeListBoards(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveListBoards(start)
	}
}
