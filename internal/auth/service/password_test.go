package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		username string
		email    string
		want     []string
	}{
		{name: "strong password", password: "abcdef123456", username: "john", email: "john@doe.com"},
		{name: "too short", password: "x7#kq", username: "john", want: []string{"too short"}},
		{name: "entirely numeric", password: "48151623426", username: "john", want: []string{"entirely numeric"}},
		{name: "common", password: "Password123", username: "john", want: []string{"too common"}},
		{name: "short and numeric and common", password: "123456", want: []string{"too short", "too common", "entirely numeric"}},
		{name: "similar to username", password: "johndoe2026", username: "johndoe2026x", want: []string{"similar to the username"}},
		{name: "similar to email local part", password: "marysmith!", username: "m", email: "mary.smith@example.com", want: []string{"similar to the email address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPassword(tt.password, tt.username, tt.email)
			require.Len(t, got, len(tt.want), "problems: %v", got)
			for i, fragment := range tt.want {
				assert.Contains(t, got[i], fragment)
			}
		})
	}
}

func TestMatchRatio(t *testing.T) {
	assert.InDelta(t, 1.0, matchRatio("john", "john"), 0.0001)
	assert.InDelta(t, 0.0, matchRatio("abc", "xyz"), 0.0001)
	assert.InDelta(t, 0.8, matchRatio("abc", "ab"), 0.0001)
	assert.InDelta(t, 1.0, matchRatio("", ""), 0.0001)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("abcdef123456", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	ok, err := VerifyPassword("abcdef123456", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("abcdef123456", "not-a-hash")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("a", 80), bcrypt.MinCost)
	assert.Error(t, err)
}
