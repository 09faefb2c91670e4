// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe methods. It validates
// the Idempotency-Key header, asks an IdempotencyLookup whether the acting
// user already completed the same call, and annotates the context so that:
//   - handlers read the key and scope (GetIdempotencyKey, IdempotencyScope),
//   - handlers answer replays from the stored resource (ReplayResource),
//   - the rate limiter lets replays through (IsRateBypass).
//
// Keys are namespaced per actor and per route, so the same key used by two
// users, or on two endpoints, never collides. Requests without an actor are
// validated but never looked up.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a replay.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemReplay   = "idem.replay"   // bool
	ctxKeyIdemResource = "idem.resource" // uint
	ctxKeyRateBypass   = "rate.bypass"   // bool
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a completed call with the same key was found.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ReplayResource returns the resource id recorded for a replayed call.
func ReplayResource(c *gin.Context) (uint, bool) {
	if !IsReplay(c) {
		return 0, false
	}
	v, _ := c.Get(ctxKeyIdemResource)
	id, ok := v.(uint)
	return id, ok
}

// IdempotencyScope names the operation a key belongs to: method plus route
// template, e.g. "POST /api/requests".
func IdempotencyScope(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports the resource produced by an unexpired earlier
// call for (actorID, scope, key). Errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, actorID uint, scope, key string, now time.Time) (resourceID uint, found bool, err error)

// IdempotencyValidator validates and stashes the Idempotency-Key header of
// POST and PATCH requests and marks replays. An invalid key is answered with
// 400; every other request proceeds. Install after Authenticate.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		if m := c.Request.Method; m != http.MethodPost && m != http.MethodPatch {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		actor, ok := ActorFrom(c)
		if lookup == nil || !ok {
			c.Next()
			return
		}
		id, found, err := lookup(c.Request.Context(), actor.ID, IdempotencyScope(c), key, time.Now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if found {
			c.Set(ctxKeyIdemReplay, true)
			c.Set(ctxKeyIdemResource, id)
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}
