package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"boards/internal/auth/metrics"
	"boards/internal/auth/models"
	"boards/internal/auth/service"
	"boards/internal/auth/store/session"
	"boards/internal/auth/store/user"
	"boards/internal/auth/token"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/audit/publisher"
	"boards/pkg/platform/audit/publishers/compliance"
	"boards/pkg/platform/audit/store/memory"
	"boards/pkg/platform/audit/store/sqlstore"
	"boards/pkg/platform/forms"
	"boards/pkg/platform/sentinel"
	"boards/pkg/requestcontext"
	"boards/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	service  *service.Service
	sessions *session.InMemorySessionStore
	audit    *sqlstore.Store
	events   *memory.InMemoryStore
	metrics  *metrics.Metrics
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	db := testutil.NewSQLiteDB(s.T())
	s.sessions = session.New()
	s.audit = sqlstore.New(db.DB, db.Rebind)
	s.events = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = service.New(user.New(db), s.sessions, token.New("test-signing-key"), db,
		service.WithAuditPublisher(compliance.New(s.audit)),
		service.WithEventPublisher(publisher.NewPublisher(s.events)),
		service.WithMetrics(s.metrics),
		service.WithBcryptCost(bcrypt.MinCost),
		service.WithSessionTTL(time.Hour),
	)
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "10.0.0.1",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
}

func (s *ServiceSuite) signUp(username string) *models.AuthResult {
	res, err := s.service.SignUp(s.ctx, &models.SignUpRequest{
		Username:  username,
		Email:     username + "@doe.com",
		Password1: "abcdef123456",
		Password2: "abcdef123456",
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestSignUp() {
	s.Run("creates user, session and token", func() {
		res := s.signUp("john")
		s.NotZero(res.User.ID)
		s.NotEqual("abcdef123456", res.User.PasswordHash)
		s.NotEmpty(res.Token)
		s.Equal("Firefox on Linux", res.Session.DeviceDisplayName)
		s.Equal("10.0.0.1", res.Session.IPAddress)

		caller, err := s.service.Authenticate(s.ctx, res.Token)
		s.Require().NoError(err)
		s.True(caller.IsAuthenticated())
		s.Equal(res.User.ID, caller.UserID)
		s.Equal("john", caller.Username)
		s.Equal(res.Session.ID, caller.SessionID)

		events, err := s.audit.ListByUser(s.ctx, res.User.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventUserCreated), events[0].Action)

		sessionEvents, err := s.events.ListByUser(s.ctx, res.User.ID)
		s.Require().NoError(err)
		s.Require().Len(sessionEvents, 1)
		s.Equal(string(audit.EventSessionCreated), sessionEvents[0].Action)

		s.InDelta(1, promtest.ToFloat64(s.metrics.UsersCreated), 0)
		s.InDelta(1, promtest.ToFloat64(s.metrics.SessionsCreated), 0)
	})

	s.Run("duplicate username is a field error", func() {
		_, err := s.service.SignUp(s.ctx, &models.SignUpRequest{
			Username: "john", Email: "other@doe.com", Password1: "abcdef123456", Password2: "abcdef123456",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal([]string{"A user with that username already exists."}, dErrors.FieldsOf(err).Get("username"))
	})

	s.Run("weak password creates nothing", func() {
		_, err := s.service.SignUp(s.ctx, &models.SignUpRequest{
			Username: "jane", Email: "jane@doe.com", Password1: "123456", Password2: "123456",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.True(dErrors.FieldsOf(err).Has("password2"))

		_, err = s.service.Login(s.ctx, &models.LoginRequest{Username: "jane", Password: "123456"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty form reports every field", func() {
		_, err := s.service.SignUp(s.ctx, &models.SignUpRequest{})
		fields := dErrors.FieldsOf(err)
		for _, name := range []string{"username", "email", "password1", "password2"} {
			s.True(fields.Has(name), name)
		}
	})
}

// flakySessions fails Create while down is set.
type flakySessions struct {
	*session.InMemorySessionStore
	down bool
}

func (f *flakySessions) Create(ctx context.Context, sess *models.Session) error {
	if f.down {
		return errors.New("redis: connection refused")
	}
	return f.InMemorySessionStore.Create(ctx, sess)
}

func (s *ServiceSuite) TestSignUpRollsBackWhenSessionStoreFails() {
	db := testutil.NewSQLiteDB(s.T())
	users := user.New(db)
	sessions := &flakySessions{InMemorySessionStore: session.New(), down: true}
	auditStore := sqlstore.New(db.DB, db.Rebind)
	svc := service.New(users, sessions, token.New("test-signing-key"), db,
		service.WithAuditPublisher(compliance.New(auditStore)),
		service.WithBcryptCost(bcrypt.MinCost),
	)
	req := func() *models.SignUpRequest {
		return &models.SignUpRequest{Username: "john", Email: "john@doe.com", Password1: "abcdef123456", Password2: "abcdef123456"}
	}

	_, err := svc.SignUp(s.ctx, req())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = users.FindByUsername(s.ctx, "john")
	s.ErrorIs(err, sentinel.ErrNotFound, "the user must not outlive the failed sign-up")
	var pending int
	s.Require().NoError(db.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM audit_events").Scan(&pending))
	s.Zero(pending)

	sessions.down = false
	res, err := svc.SignUp(s.ctx, req())
	s.Require().NoError(err)
	s.Equal("john", res.User.Username)
}

func (s *ServiceSuite) TestLogin() {
	registered := s.signUp("john")

	s.Run("correct credentials open a new session", func() {
		res, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "john", Password: "abcdef123456"})
		s.Require().NoError(err)
		s.NotEqual(registered.Session.ID, res.Session.ID)
		s.Require().NotNil(res.User.LastLogin)
	})

	s.Run("wrong password and unknown user share one message", func() {
		for _, req := range []models.LoginRequest{
			{Username: "john", Password: "nope"},
			{Username: "nobody", Password: "abcdef123456"},
		} {
			_, err := s.service.Login(s.ctx, &req)
			s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
			msgs := dErrors.FieldsOf(err).Get(forms.NonField)
			s.Require().Len(msgs, 1)
			s.Contains(msgs[0], "Please enter a correct username and password")
		}
		s.InDelta(2, promtest.ToFloat64(s.metrics.LoginsFailed), 0)
	})

	s.Run("failed login for a known user is audited", func() {
		events, err := s.events.ListByUser(s.ctx, registered.User.ID)
		s.Require().NoError(err)
		var actions []string
		for _, e := range events {
			actions = append(actions, e.Action)
		}
		s.Contains(actions, string(audit.EventAuthFailed))
	})
}

func (s *ServiceSuite) TestLogoutRevokesSession() {
	res := s.signUp("john")
	caller, err := s.service.Authenticate(s.ctx, res.Token)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, caller))
	_, err = s.service.Authenticate(s.ctx, res.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.NoError(s.service.Logout(s.ctx, caller), "second logout is a no-op")
	s.NoError(s.service.Logout(s.ctx, id.Anonymous()))
}

func (s *ServiceSuite) TestAuthenticateRejects() {
	res := s.signUp("john")

	s.Run("garbage token", func() {
		_, err := s.service.Authenticate(s.ctx, "garbage")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired session", func() {
		later := requestcontext.WithTime(s.ctx, time.Now().Add(2*time.Hour))
		_, err := s.service.Authenticate(later, res.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("token for an unknown session", func() {
		now := time.Now()
		forged, err := token.New("test-signing-key").Issue(id.NewSessionID(), res.User.ID, "john", now, now.Add(time.Hour))
		s.Require().NoError(err)
		_, err = s.service.Authenticate(s.ctx, forged)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("token subject differs from the session owner", func() {
		now := time.Now()
		forged, err := token.New("test-signing-key").Issue(res.Session.ID, res.User.ID+1, "mallory", now, now.Add(time.Hour))
		s.Require().NoError(err)
		_, err = s.service.Authenticate(s.ctx, forged)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestUpdateAccount() {
	res := s.signUp("john")
	caller := id.Caller{UserID: res.User.ID, Username: "john", SessionID: res.Session.ID}

	s.Run("anonymous caller", func() {
		_, err := s.service.UpdateAccount(s.ctx, id.Anonymous(), &models.UpdateAccountRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("invalid email", func() {
		_, err := s.service.UpdateAccount(s.ctx, caller, &models.UpdateAccountRequest{Email: "nope"})
		s.True(dErrors.FieldsOf(err).Has("email"))
	})

	s.Run("saves the profile", func() {
		updated, err := s.service.UpdateAccount(s.ctx, caller, &models.UpdateAccountRequest{
			FirstName: " John ", LastName: "Doe", Email: "j@DOE.com",
		})
		s.Require().NoError(err)
		s.Equal("John", updated.FirstName)

		stored, err := s.service.GetUser(s.ctx, res.User.ID)
		s.Require().NoError(err)
		s.Equal("Doe", stored.LastName)
		s.Equal("j@doe.com", stored.Email)

		events, err := s.audit.ListByUser(s.ctx, res.User.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
	})

	s.Run("unknown user", func() {
		_, err := s.service.GetUser(s.ctx, 999)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
