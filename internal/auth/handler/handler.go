package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"boards/internal/auth/models"
	rlmodels "boards/internal/ratelimit/models"
	"boards/internal/transport/http/shared"
	"boards/internal/web/views"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/httputil"
	authmw "boards/pkg/platform/middleware/auth"
	"boards/pkg/requestcontext"
)

const (
	homePath    = "/"
	accountPath = "/settings/account/"
)

// Service is the account workflow surface used by the handlers.
type Service interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, caller id.Caller) error
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateAccount(ctx context.Context, caller id.Caller, req *models.UpdateAccountRequest) (*models.User, error)
}

// CookieConfig describes the session cookie. It is shared with the session
// middleware so both write the cookie with the same attributes.
type CookieConfig = authmw.SessionCookie

// AttemptLimiter throttles credential submissions.
type AttemptLimiter interface {
	Limit(class rlmodels.Class, limit rlmodels.Limit) func(http.Handler) http.Handler
}

type Handler struct {
	service Service
	cookie  CookieConfig
	logger  *slog.Logger

	limiter     AttemptLimiter
	loginLimit  rlmodels.Limit
	signUpLimit rlmodels.Limit
}

type Option func(*Handler)

// WithAttemptLimiter caps POSTs to the login and sign-up forms per client.
func WithAttemptLimiter(l AttemptLimiter, login, signUp rlmodels.Limit) Option {
	return func(h *Handler) {
		h.limiter = l
		h.loginLimit = login
		h.signUpLimit = signUp
	}
}

func New(service Service, cookie CookieConfig, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, cookie: cookie, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) throttle(class rlmodels.Class, limit rlmodels.Limit) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(class, limit)
}

// Register registers the sign-up, login, logout and account routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/signup/", h.handleSignUpForm)
	r.With(h.throttle(rlmodels.ClassSignUp, h.signUpLimit)).Post("/signup/", h.handleSignUp)
	r.Get(shared.LoginPath, h.handleLoginForm)
	r.With(h.throttle(rlmodels.ClassLogin, h.loginLimit)).Post(shared.LoginPath, h.handleLogin)
	r.Post("/logout/", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireLogin(shared.LoginPath))
		r.Get(accountPath, h.handleAccountForm)
		r.Post(accountPath, h.handleAccount)
	})
}

func (h *Handler) handleSignUpForm(w http.ResponseWriter, r *http.Request) {
	shared.Render(w, r, h.logger, http.StatusOK, views.SignUp(views.SignUpForm{}))
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed form"))
		return
	}
	req := &models.SignUpRequest{
		Username:  r.PostForm.Get("username"),
		Email:     r.PostForm.Get("email"),
		Password1: r.PostForm.Get("password1"),
		Password2: r.PostForm.Get("password2"),
	}
	res, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		form := views.SignUpForm{Username: req.Username, Email: req.Email, Errors: dErrors.FieldsOf(err)}
		shared.Render(w, r, h.logger, http.StatusOK, views.SignUp(form))
		return
	}
	h.setSessionCookie(w, res)
	httputil.SeeOther(w, r, homePath)
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := httputil.SafeNext(r.URL.Query().Get("next"), "")
	shared.Render(w, r, h.logger, http.StatusOK, views.Login(views.LoginForm{Next: next}))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed form"))
		return
	}
	next := r.PostForm.Get("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}
	next = httputil.SafeNext(next, "")

	req := &models.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		form := views.LoginForm{Username: req.Username, Next: next, Errors: dErrors.FieldsOf(err)}
		shared.Render(w, r, h.logger, http.StatusOK, views.Login(form))
		return
	}
	h.setSessionCookie(w, res)
	httputil.SeeOther(w, r, httputil.SafeNext(next, homePath))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	h.clearSessionCookie(w)
	httputil.SeeOther(w, r, homePath)
}

func (h *Handler) handleAccountForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.Render(w, r, h.logger, http.StatusOK, views.Account(views.AccountForm{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Saved:     r.URL.Query().Get("saved") == "1",
	}))
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed form"))
		return
	}
	req := &models.UpdateAccountRequest{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Email:     r.PostForm.Get("email"),
	}
	if _, err := h.service.UpdateAccount(ctx, requestcontext.Caller(ctx), req); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		shared.Render(w, r, h.logger, http.StatusOK, views.Account(views.AccountForm{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Errors:    dErrors.FieldsOf(err),
		}))
		return
	}
	httputil.SeeOther(w, r, accountPath+"?saved=1")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, res *models.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		MaxAge:   int(time.Until(res.Session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	h.cookie.Clear(w)
}
