package main

import (
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-supply-backend/internal/config"
	"github.com/tbourn/go-supply-backend/internal/http/middleware"
)

func TestIssue(t *testing.T) {
	auth := config.AuthConfig{JWTSecret: "0123456789abcdef0123"}

	tok, err := issue(auth, 3, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := middleware.ParseToken([]byte(auth.JWTSecret), tok)
	if err != nil || id != 3 {
		t.Fatalf("ParseToken = %d, %v", id, err)
	}

	for name, tc := range map[string]struct {
		auth config.AuthConfig
		user uint
		ttl  time.Duration
		want string
	}{
		"no user":   {auth, 0, time.Hour, "-user"},
		"no secret": {config.AuthConfig{}, 3, time.Hour, "JWT_SECRET"},
		"zero ttl":  {auth, 3, 0, "-ttl"},
	} {
		if _, err := issue(tc.auth, tc.user, tc.ttl); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want error mentioning %q", name, err, tc.want)
		}
	}
}
