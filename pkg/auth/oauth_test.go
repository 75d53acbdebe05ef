package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestNormalizeRedirectURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback"},
		{"http://localhost", "http://localhost:6789"},
		{"http://127.0.0.1:8080/cb", "http://127.0.0.1:6789/cb"},
		{"https://example.com/cb", "https://example.com/cb"},
	}
	for _, tt := range tests {
		if got := normalizeRedirectURL(tt.in); got != tt.want {
			t.Errorf("normalizeRedirectURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := saveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	tok, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if tok.AccessToken != "a" || tok.RefreshToken != "r" || !tok.Expiry.Equal(expiry) {
		t.Errorf("Unexpected token %+v", tok)
	}
}

func TestTokenPathUsesConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path, err := TokenPath()
	if err != nil {
		t.Fatalf("TokenPath failed: %v", err)
	}
	if path != filepath.Join(home, ".config", "todocal", TokenFile) {
		t.Errorf("Unexpected token path %s", path)
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantCode string
	}{
		{"accepted", "?state=s1&code=abc", http.StatusOK, "abc"},
		{"wrong state", "?state=other&code=abc", http.StatusBadRequest, ""},
		{"denied", "?state=s1&error=access_denied", http.StatusForbidden, ""},
		{"no code", "?state=s1", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codeCh := make(chan string, 1)
			errCh := make(chan error, 1)
			rec := httptest.NewRecorder()
			callbackHandler("s1", codeCh, errCh).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback"+tt.query, nil))

			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
			select {
			case code := <-codeCh:
				if code != tt.wantCode {
					t.Errorf("Expected code %q, got %q", tt.wantCode, code)
				}
			case err := <-errCh:
				if tt.wantCode != "" {
					t.Errorf("Expected code %q, got error %v", tt.wantCode, err)
				}
			default:
				t.Error("Expected a code or an error to be reported")
			}
		})
	}
}

func TestSavingSourceWritesRefreshedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	old := &oauth2.Token{AccessToken: "old", RefreshToken: "r"}

	same := &savingSource{path: path, src: oauth2.StaticTokenSource(old), last: old}
	if _, err := same.Token(); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if _, err := tokenFromFile(path); err == nil {
		t.Fatal("Expected an unchanged token not to be written")
	}

	fresh := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	refreshed := &savingSource{path: path, src: oauth2.StaticTokenSource(fresh), last: old}
	if _, err := refreshed.Token(); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	saved, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if saved.AccessToken != "new" {
		t.Errorf("Expected refreshed token saved, got %q", saved.AccessToken)
	}
}
