// Command token prints a signed bearer token for a user id. The server must
// run with the same JWT_SECRET.
//
//	JWT_SECRET=... go run ./cmd/token -user 2
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-supply-backend/internal/config"
	"github.com/tbourn/go-supply-backend/internal/http/middleware"
	"github.com/tbourn/go-supply-backend/internal/sysutil"
)

func main() {
	config.LoadDotenv()
	cfg := config.MustLoad()
	log.Logger = sysutil.NewLogger(os.Stderr, true, "token")

	user := flag.Uint("user", 0, "user id to issue the token for")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	tok, err := issue(cfg.Auth, *user, *ttl)
	if err != nil {
		log.Fatal().Err(err).Uint("user_id", *user).Msg("cannot issue token")
	}
	fmt.Println(tok)
}

func issue(auth config.AuthConfig, user uint, ttl time.Duration) (string, error) {
	if user == 0 {
		return "", errors.New("-user is required")
	}
	if auth.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	if ttl <= 0 {
		return "", errors.New("-ttl must be positive")
	}
	return middleware.IssueToken([]byte(auth.JWTSecret), user, ttl)
}
