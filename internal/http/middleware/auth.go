// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting user for each request. Two credentials are
// understood:
//   - Authorization: Bearer <HS256 JWT> whose "sub" claim is the user id,
//     accepted when a signing secret is configured;
//   - X-User-ID: <id>, accepted only when AllowHeader is on and no secret is
//     configured (local development).
//
// The role is always loaded from storage through an ActorLookup; nothing the
// client sends about roles is trusted. Requests without credentials continue
// anonymously so read endpoints stay public; handlers that mutate state call
// ActorFrom and answer 401 when no actor is present.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/utils"
)

// HeaderUserID carries the acting user id in development mode.
const HeaderUserID = "X-User-ID"

const (
	ctxKeyActor  = "actor"
	ctxKeyUserID = "userID"

	tokenIssuer = "go-supply-backend"
)

// ActorLookup resolves a user id to an Actor. found=false means the user does
// not exist; err is reserved for storage failures.
type ActorLookup func(ctx context.Context, id uint) (actor lifecycle.Actor, found bool, err error)

// AuthOptions configures Authenticate.
type AuthOptions struct {
	// Secret signs and verifies bearer tokens. Empty disables them.
	Secret []byte
	// AllowHeader accepts the X-User-ID header. It has no effect once Secret
	// is set.
	AllowHeader bool
}

// ActorFrom returns the actor resolved by Authenticate.
func ActorFrom(c *gin.Context) (lifecycle.Actor, bool) {
	v, ok := c.Get(ctxKeyActor)
	if !ok {
		return lifecycle.Actor{}, false
	}
	a, ok := v.(lifecycle.Actor)
	return a, ok
}

// Authenticate resolves credentials into a lifecycle.Actor stored in the Gin
// context. Present but invalid credentials are rejected with 401; a lookup
// failure yields 500.
func Authenticate(opts AuthOptions, lookup ActorLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, present, err := credentials(c, opts)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		if !present {
			c.Next()
			return
		}

		actor, found, err := lookup(c.Request.Context(), id)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Uint("actor_id", id).Msg("actor lookup failed")
			abortAuth(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		if !found {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", fmt.Sprintf("user %d does not exist", id))
			return
		}

		c.Set(ctxKeyActor, actor)
		c.Set(ctxKeyUserID, strconv.FormatUint(uint64(actor.ID), 10))

		lg := LoggerFrom(c).With().
			Uint("actor_id", actor.ID).
			Str("actor_role", string(actor.Role)).
			Logger()
		c.Set(ctxKeyLogger, &lg)

		c.Next()
	}
}

// credentials extracts the claimed user id. present=false means the request
// carries no credentials at all.
func credentials(c *gin.Context, opts AuthOptions) (id uint, present bool, err error) {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		if len(opts.Secret) == 0 {
			return 0, true, errors.New("bearer tokens are not enabled")
		}
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return 0, true, errors.New("authorization must be a Bearer token")
		}
		id, err := ParseToken(opts.Secret, strings.TrimSpace(raw))
		return id, true, err
	}
	if !opts.AllowHeader || len(opts.Secret) > 0 {
		return 0, false, nil
	}
	h := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if h == "" {
		return 0, false, nil
	}
	id, err = parseUserID(h)
	return id, true, err
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret []byte, userID uint, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies raw and returns the user id in its subject.
func ParseToken(secret []byte, raw string) (uint, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, errors.New("invalid or expired token")
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	return parseUserID(claims.Subject)
}

func parseUserID(s string) (uint, error) {
	id, ok := utils.ParseID(s)
	if !ok {
		return 0, errors.New("user id must be a positive integer")
	}
	return id, nil
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
