package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"boards/internal/auth/handler/mocks"
	"boards/internal/auth/models"
	rlmodels "boards/internal/ratelimit/models"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/forms"
	"boards/pkg/testutil"
)

const cookieName = "sessionid"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, CookieConfig{Name: cookieName}, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func authResult() *models.AuthResult {
	return &models.AuthResult{
		User:    &models.User{ID: 7, Username: "john"},
		Session: &models.Session{ID: id.NewSessionID(), UserID: 7, ExpiresAt: time.Now().Add(time.Hour)},
		Token:   "signed-token",
	}
}

func (s *HandlerSuite) TestSignUpForm() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/signup/"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	inputs, textareas := testutil.CountInputs(rr.Body.String())
	s.Equal(4, inputs)
	s.Equal(0, textareas)
}

func (s *HandlerSuite) TestSignUp() {
	form := url.Values{
		"username":  {"john"},
		"email":     {"john@doe.com"},
		"password1": {"abcdef123456"},
		"password2": {"abcdef123456"},
	}

	s.Run("success sets the cookie and redirects home", func() {
		s.service.EXPECT().SignUp(gomock.Any(), &models.SignUpRequest{
			Username: "john", Email: "john@doe.com", Password1: "abcdef123456", Password2: "abcdef123456",
		}).Return(authResult(), nil)

		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/signup/", form))

		testutil.AssertRedirect(s.T(), rr, "/")
		cookie := testutil.Cookie(rr, cookieName)
		s.Require().NotNil(cookie)
		s.Equal("signed-token", cookie.Value)
		s.True(cookie.HttpOnly)
		s.Equal("/", cookie.Path)
	})

	s.Run("validation failure re-renders with 200 and no cookie", func() {
		s.service.EXPECT().SignUp(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Validation(forms.Errors{"password2": {"The two password fields didn't match."}}))

		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/signup/", url.Values{}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), "The two password fields didn&#39;t match.")
		s.Nil(testutil.Cookie(rr, cookieName))
	})

	s.Run("internal failure renders 500", func() {
		s.service.EXPECT().SignUp(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "boom"))

		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/signup/", form))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	})
}

func (s *HandlerSuite) TestLogin() {
	s.Run("form keeps a safe next", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/login/?next=/boards/1/new/"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), `name="next" value="/boards/1/new/"`)
	})

	s.Run("form drops an external next", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/login/?next=https://evil.example/"))
		s.NotContains(rr.Body.String(), `name="next"`)
	})

	s.Run("success redirects to next", func() {
		s.service.EXPECT().Login(gomock.Any(), &models.LoginRequest{Username: "john", Password: "secret"}).Return(authResult(), nil)

		form := url.Values{"username": {"john"}, "password": {"secret"}, "next": {"/boards/1/new/"}}
		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/login/", form))

		testutil.AssertRedirect(s.T(), rr, "/boards/1/new/")
		s.NotNil(testutil.Cookie(rr, cookieName))
	})

	s.Run("success with an unsafe next goes home", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Return(authResult(), nil)

		form := url.Values{"username": {"john"}, "password": {"secret"}, "next": {"//evil.example/"}}
		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/login/", form))

		testutil.AssertRedirect(s.T(), rr, "/")
	})

	s.Run("bad credentials re-render with the form error", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Validation(forms.Errors{forms.NonField: {"Please enter a correct username and password."}}))

		form := url.Values{"username": {"john"}, "password": {"nope"}}
		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), http.MethodPost, "/login/", form))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), "Please enter a correct username and password.")
		s.Contains(rr.Body.String(), `value="john"`)
	})
}

func (s *HandlerSuite) TestLogout() {
	req := testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, "/logout/"), 7, "john")
	s.service.EXPECT().Logout(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, caller id.Caller) error {
		s.Equal(id.UserID(7), caller.UserID)
		return nil
	})

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertRedirect(s.T(), rr, "/")
	cookie := testutil.Cookie(rr, cookieName)
	s.Require().NotNil(cookie)
	s.Empty(cookie.Value)
	s.Less(cookie.MaxAge, 0)
}

func (s *HandlerSuite) TestAccount() {
	s.Run("anonymous visitors are sent to login", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/settings/account/"))
		testutil.AssertRedirect(s.T(), rr, "/login/?next=/settings/account/")
	})

	s.Run("form is prefilled", func() {
		s.service.EXPECT().GetUser(gomock.Any(), id.UserID(7)).
			Return(&models.User{ID: 7, FirstName: "John", Email: "john@doe.com"}, nil)

		req := testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, "/settings/account/"), 7, "john")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), `value="John"`)
		s.Contains(rr.Body.String(), `value="john@doe.com"`)
	})

	s.Run("save redirects back", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), gomock.Any(), &models.UpdateAccountRequest{FirstName: "John", LastName: "Doe", Email: "j@doe.com"}).
			Return(&models.User{ID: 7}, nil)

		form := url.Values{"first_name": {"John"}, "last_name": {"Doe"}, "email": {"j@doe.com"}}
		req := testutil.WithUser(testutil.NewFormRequest(s.T(), http.MethodPost, "/settings/account/", form), 7, "john")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertRedirect(s.T(), rr, "/settings/account/?saved=1")
	})

	s.Run("invalid email re-renders", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Validation(forms.Errors{"email": {"Enter a valid email address."}}))

		form := url.Values{"email": {"nope"}}
		req := testutil.WithUser(testutil.NewFormRequest(s.T(), http.MethodPost, "/settings/account/", form), 7, "john")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), "Enter a valid email address.")
	})
}

func (s *HandlerSuite) TestAttemptLimiter() {
	loginLimit := rlmodels.Limit{Requests: 5, Window: time.Minute}
	signUpLimit := rlmodels.Limit{Requests: 2, Window: time.Hour}
	reject := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	pass := func(next http.Handler) http.Handler { return next }

	limiter := mocks.NewMockAttemptLimiter(s.ctrl)
	limiter.EXPECT().Limit(rlmodels.ClassSignUp, signUpLimit).Return(pass)
	limiter.EXPECT().Limit(rlmodels.ClassLogin, loginLimit).Return(reject)

	router := chi.NewRouter()
	New(s.service, CookieConfig{Name: cookieName}, slog.New(slog.DiscardHandler),
		WithAttemptLimiter(limiter, loginLimit, signUpLimit),
	).Register(router)

	s.Run("login posts are throttled", func() {
		form := url.Values{"username": {"john"}, "password": {"secret"}}
		rr := testutil.DoRequest(router, testutil.NewFormRequest(s.T(), http.MethodPost, "/login/", form))
		testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	})

	s.Run("login form stays reachable", func() {
		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/login/"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}
