package service

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	dErrors "boards/pkg/domain-errors"
	"boards/pkg/email"
)

const (
	MinPasswordLength = 8

	// maxSimilarity is the match ratio at or above which a password counts as
	// derived from a user attribute.
	maxSimilarity = 0.7
)

//go:embed common_passwords.txt
var commonPasswordsFile string

var (
	commonPasswords = loadCommonPasswords(commonPasswordsFile)
	attributeParts  = regexp.MustCompile(`\W+`)
)

func loadCommonPasswords(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}

// CheckPassword applies the password policy and returns every message that
// applies, in a stable order.
func CheckPassword(password, username, emailAddr string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if attr, ok := similarAttribute(password, username, emailAddr); ok {
		problems = append(problems, "The password is too similar to the "+attr+".")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func similarAttribute(password, username, emailAddr string) (string, bool) {
	attrs := []struct {
		name  string
		value string
	}{
		{"username", username},
		{"email address", emailAddr},
	}
	lowered := strings.ToLower(password)
	for _, attr := range attrs {
		if attr.value == "" {
			continue
		}
		value := strings.ToLower(attr.value)
		candidates := append([]string{value}, attributeParts.Split(value, -1)...)
		if attr.name == "email address" {
			candidates = append(candidates, strings.ToLower(email.LocalPart(attr.value)))
		}
		for _, part := range candidates {
			if part != "" && matchRatio(lowered, part) >= maxSimilarity {
				return attr.name, true
			}
		}
	}
	return "", false
}

// matchRatio is 2*M/T where M is the longest common subsequence length and T
// the combined rune count, 1.0 for identical strings.
func matchRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(total)
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash. A malformed hash is an error.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("could not verify password: %w", err)
}
