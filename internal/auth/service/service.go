// Package service implements registration, login, logout, session
// resolution and account settings.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"boards/internal/auth/device"
	"boards/internal/auth/metrics"
	"boards/internal/auth/models"
	"boards/internal/auth/store/session"
	"boards/internal/auth/token"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/forms"
	"boards/pkg/platform/sentinel"
	"boards/pkg/requestcontext"
)

const (
	DefaultSessionTTL = 14 * 24 * time.Hour

	invalidLoginMessage  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	usernameTakenMessage = "A user with that username already exists."
)

// dummyHash is compared against when the username is unknown so a miss costs
// the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, userID id.UserID, at time.Time) error
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	RevokeSessionIfActive(ctx context.Context, sessionID id.SessionID, now time.Time) error
}

// Tokens signs and verifies session cookie values.
type Tokens interface {
	Issue(sessionID id.SessionID, userID id.UserID, username string, issuedAt, expiresAt time.Time) (string, error)
	Validate(tokenString string) (*token.Claims, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditPublisher records an event. The compliance publisher is used for
// account writes so the event commits with the user row; session activity
// goes to the buffered publisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	users          UserStore
	sessions       SessionStore
	tokens         Tokens
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	eventPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	sessionTTL     time.Duration
	bcryptCost     int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the publisher for user_created and account_updated.
// It runs inside the write transaction.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithEventPublisher sets the publisher for session and login events.
// Failures are logged, never returned.
func WithEventPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.eventPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(users UserStore, sessions SessionStore, tokens Tokens, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		tx:         tx,
		logger:     slog.Default(),
		tracer:     otel.Tracer("boards/internal/auth/service"),
		sessionTTL: DefaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers a user and signs them in.
func (s *Service) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignUp")
	defer span.End()

	req.Normalize()
	errs := req.Validate()
	if !errs.Has("password1") && !errs.Has("password2") {
		for _, problem := range CheckPassword(req.Password2, req.Username, req.Email) {
			errs.Add("password2", problem)
		}
	}
	if errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	hash, err := HashPassword(req.Password1, s.bcryptCost)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.Validation(forms.Errors{"password2": {"This password is too long."}})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user := models.NewUser(req.Username, req.Email, hash, now)

	// The session is stored and signed as the last step of the transaction, so
	// a session failure rolls the user back and the username stays free.
	var result *models.AuthResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.emitAudit(ctx, s.auditPublisher, user.ID, audit.EventUserCreated); err != nil {
			return err
		}
		var err error
		result, err = s.startSession(ctx, user)
		return err
	})
	if err != nil {
		if result != nil {
			s.discardSession(ctx, result.Session)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Validation(forms.Errors{"username": {usernameTakenMessage}})
		}
		if dErrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))

	s.logAudit(ctx, string(audit.EventUserCreated), "user_id", user.ID, "username", user.Username)
	s.incrementUsersCreated()
	s.announceSession(ctx, result)

	return result, nil
}

// Login checks credentials and opens a session. Every credential failure
// carries the same non-field message.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()
	start := time.Now()
	defer s.observeLogin(start)

	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return nil, s.loginFailed(ctx, 0, req.Username, "unknown_user")
	}

	ok, err := VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		return nil, s.loginFailed(ctx, user.ID, req.Username, "bad_password")
	}

	now := requestcontext.Now(ctx)
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}
	user.LastLogin = &now

	return s.openSession(ctx, user)
}

func (s *Service) loginFailed(ctx context.Context, userID id.UserID, username, reason string) error {
	s.incrementLoginsFailed()
	s.logAudit(ctx, string(audit.EventAuthFailed), "username", username, "reason", reason)
	if userID > 0 {
		s.publishEvent(ctx, audit.Event{
			UserID:  userID,
			Subject: "user:" + userID.String(),
			Action:  string(audit.EventAuthFailed),
			Reason:  reason,
		})
	}
	return dErrors.Validation(forms.Errors{forms.NonField: {invalidLoginMessage}})
}

func (s *Service) openSession(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	result, err := s.startSession(ctx, user)
	if err != nil {
		if result != nil {
			s.discardSession(ctx, result.Session)
		}
		return nil, err
	}
	s.announceSession(ctx, result)
	return result, nil
}

// startSession stores a new session for user and signs its token.
func (s *Service) startSession(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	now := requestcontext.Now(ctx)
	sess, err := models.NewSession(user, device.ParseUserAgent(requestcontext.UserAgent(ctx)), requestcontext.ClientIP(ctx), now, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build session")
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}
	result := &models.AuthResult{User: user, Session: sess}
	result.Token, err = s.tokens.Issue(sess.ID, user.ID, user.Username, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		// the stored session is returned so the caller can revoke it
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return result, nil
}

// discardSession revokes a session whose owner was never committed.
func (s *Service) discardSession(ctx context.Context, sess *models.Session) {
	if err := s.sessions.RevokeSessionIfActive(ctx, sess.ID, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to discard orphaned session",
			"error", err,
			"session_id", sess.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) announceSession(ctx context.Context, result *models.AuthResult) {
	s.publishEvent(ctx, audit.Event{
		UserID:  result.User.ID,
		Subject: "session:" + result.Session.ID.String(),
		Action:  string(audit.EventSessionCreated),
	})
	s.logAudit(ctx, string(audit.EventSessionCreated),
		"user_id", result.User.ID,
		"session_id", result.Session.ID,
		"device", result.Session.DeviceDisplayName,
	)
	s.incrementSessionsCreated()
}

// Logout revokes the caller's session. Anonymous callers and already revoked
// sessions are a no-op.
func (s *Service) Logout(ctx context.Context, caller id.Caller) error {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	if !caller.IsAuthenticated() || caller.SessionID.IsNil() {
		return nil
	}
	err := s.sessions.RevokeSessionIfActive(ctx, caller.SessionID, requestcontext.Now(ctx))
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionRevoked), errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	s.publishEvent(ctx, audit.Event{
		UserID:  caller.UserID,
		Subject: "session:" + caller.SessionID.String(),
		Action:  string(audit.EventSessionRevoked),
	})
	s.logAudit(ctx, string(audit.EventSessionRevoked), "user_id", caller.UserID, "session_id", caller.SessionID)
	return nil
}

// Authenticate resolves a session token into its caller. Invalid, expired
// and revoked sessions are CodeUnauthorized.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (id.Caller, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return id.Anonymous(), err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return id.Anonymous(), dErrors.New(dErrors.CodeUnauthorized, "invalid session id")
	}
	userID, err := claims.UserID()
	if err != nil {
		return id.Anonymous(), dErrors.New(dErrors.CodeUnauthorized, "invalid subject")
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.Anonymous(), dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return id.Anonymous(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if sess.UserID != userID {
		return id.Anonymous(), dErrors.New(dErrors.CodeUnauthorized, "session does not belong to token subject")
	}
	if !sess.IsActive(requestcontext.Now(ctx)) {
		return id.Anonymous(), dErrors.New(dErrors.CodeUnauthorized, "session is no longer active")
	}

	return id.Caller{UserID: sess.UserID, Username: sess.Username, SessionID: sess.ID}, nil
}

func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// UpdateAccount saves the caller's name and email.
func (s *Service) UpdateAccount(ctx context.Context, caller id.Caller, req *models.UpdateAccountRequest) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UpdateAccount")
	defer span.End()

	if !caller.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	var user *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.users.FindByID(ctx, caller.UserID); err != nil {
			return err
		}
		user.FirstName, user.LastName, user.Email = req.FirstName, req.LastName, req.Email
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return err
		}
		return s.emitAudit(ctx, s.auditPublisher, user.ID, audit.EventAccountUpdated)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}

	s.logAudit(ctx, string(audit.EventAccountUpdated), "user_id", user.ID)
	return user, nil
}
