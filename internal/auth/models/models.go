package models

import (
	"regexp"
	"strings"
	"time"

	id "boards/pkg/domain"
	"boards/pkg/email"
	"boards/pkg/platform/forms"
)

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 150
)

var usernamePattern = regexp.MustCompile(`^[\pL\pN_.@+-]+$`)

// User is a registered member. PasswordHash is a bcrypt hash and never leaves
// the auth module.
type User struct {
	ID           id.UserID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DateJoined   time.Time
	LastLogin    *time.Time
}

// NewUser builds a user joining at now. Input is expected to be validated.
func NewUser(username, emailAddr, passwordHash string, now time.Time) *User {
	return &User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		DateJoined:   now,
	}
}

// SignUpRequest is the registration form input.
type SignUpRequest struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// Normalize trims the username and email and lowercases the email domain.
// Passwords are taken verbatim.
func (r *SignUpRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = email.Normalize(r.Email)
}

// Validate checks the field-level rules. Password strength and username
// uniqueness are checked by the service.
func (r *SignUpRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	if errs.Required("username", r.Username) && errs.MaxLength("username", r.Username, MaxUsernameLength) {
		if !usernamePattern.MatchString(r.Username) {
			errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		}
	}
	if errs.Required("email", r.Email) && errs.MaxLength("email", r.Email, MaxEmailLength) {
		errs.Email("email", r.Email)
	}
	okPassword1 := errs.Required("password1", r.Password1)
	okPassword2 := errs.Required("password2", r.Password2)
	if okPassword1 && okPassword2 && r.Password1 != r.Password2 {
		errs.Add("password2", "The two password fields didn't match.")
	}
	return errs
}

// LoginRequest is the login form input.
type LoginRequest struct {
	Username string
	Password string
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	errs.Required("username", r.Username)
	errs.Required("password", r.Password)
	return errs
}

// UpdateAccountRequest is the account settings form. Every field is optional.
type UpdateAccountRequest struct {
	FirstName string
	LastName  string
	Email     string
}

func (r *UpdateAccountRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = email.Normalize(r.Email)
}

func (r *UpdateAccountRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	errs.MaxLength("first_name", r.FirstName, MaxNameLength)
	errs.MaxLength("last_name", r.LastName, MaxNameLength)
	if r.Email != "" && errs.MaxLength("email", r.Email, MaxEmailLength) {
		errs.Email("email", r.Email)
	}
	return errs
}

// AuthResult is returned by sign-up and login: the user, the new session and
// the signed token to put in the session cookie.
type AuthResult struct {
	User    *User
	Session *Session
	Token   string
}
