package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "boards/pkg/domain-errors"
)

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:   http.StatusOK,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeInvalidInput: http.StatusNotFound,
		dErrors.CodeUnauthorized: http.StatusFound,
		dErrors.CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestLoginRedirectURL(t *testing.T) {
	t.Run("keeps slashes readable", func(t *testing.T) {
		got := LoginRedirectURL("/login/", "/boards/1/topics/2/reply/")
		want := "/login/?next=/boards/1/topics/2/reply/"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("escapes query characters", func(t *testing.T) {
		got := LoginRedirectURL("/login/", "/boards/1/?page=2&x=y")
		want := "/login/?next=/boards/1/%3Fpage%3D2%26x%3Dy"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("no next", func(t *testing.T) {
		if got := LoginRedirectURL("/login/", ""); got != "/login/" {
			t.Fatalf("expected bare login path, got %q", got)
		}
	})
}

func TestSafeNext(t *testing.T) {
	cases := []struct {
		next string
		want string
	}{
		{"/boards/1/new/", "/boards/1/new/"},
		{"", "/"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com/", "/"},
		{"/\\evil.example.com", "/"},
		{"boards/1/", "/"},
	}
	for _, tc := range cases {
		if got := SafeNext(tc.next, "/"); got != tc.want {
			t.Fatalf("SafeNext(%q) = %q, want %q", tc.next, got, tc.want)
		}
	}
}

func TestSeeOther(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signup/", nil)
	SeeOther(rec, req, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected Location /, got %q", loc)
	}
}
