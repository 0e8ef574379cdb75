package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestContainsAny(t *testing.T) {
	challengeIndicators := []string{"/account/access", "challenge", "verify"}

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"challenge path", "https://x.com/account/access", true},
		{"challenge keyword", "https://x.com/i/flow/login_challenge", true},
		{"case-insensitive", "https://x.com/VERIFY/step2", true},
		{"home url", "https://x.com/home", false},
		{"empty url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsAny(tt.url, challengeIndicators); got != tt.want {
				t.Errorf("ContainsAny(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestContainsAnyIgnoresEmptyIndicators(t *testing.T) {
	if ContainsAny("https://x.com/home", []string{""}) {
		t.Error("Empty indicator must never match")
	}
}

func TestOnDomain(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		domain string
		want   bool
	}{
		{"exact domain", "https://x.com/home", "x.com", true},
		{"subdomain", "https://mobile.x.com/home", "x.com", true},
		{"different domain", "https://example.com/x.com", "x.com", false},
		{"domain as path only", "https://evil.com/x.com/home", "x.com", false},
		{"suffix but not subdomain", "https://notx.com/home", "x.com", false},
		{"case-insensitive host", "https://X.com/home", "x.com", true},
		{"blank page", "about:blank", "x.com", false},
		{"empty url", "", "x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnDomain(tt.url, tt.domain); got != tt.want {
				t.Errorf("OnDomain(%q, %q) = %v, want %v", tt.url, tt.domain, got, tt.want)
			}
		})
	}
}

func TestLoginErrorFormatting(t *testing.T) {
	cause := errors.New("no element matched")
	err := &LoginError{
		Kind:       ElementNotFound,
		URL:        "https://x.com/i/flow/login",
		Screenshot: "/tmp/artifacts/login-failure.png",
		Err:        cause,
	}

	msg := err.Error()
	for _, want := range []string{"element_not_found", "https://x.com/i/flow/login", "login-failure.png", "no element matched"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error message missing %q: %s", want, msg)
		}
	}

	if !errors.Is(err, cause) {
		t.Error("LoginError must unwrap to its cause")
	}
}

func TestLoginErrorWithoutSnapshot(t *testing.T) {
	err := &LoginError{Kind: ManualVerificationTimeout, URL: "https://x.com/account/access"}

	msg := err.Error()
	if strings.Contains(msg, "snapshot") {
		t.Errorf("Error message must omit snapshot section when none captured: %s", msg)
	}
	if !strings.Contains(msg, "manual_verification_timeout") {
		t.Errorf("Error message missing kind: %s", msg)
	}
}
