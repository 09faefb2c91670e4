package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
)

// withActor stands in for Authenticate.
func withActor(a lifecycle.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyActor, a)
		c.Next()
	}
}

type lookupCall struct {
	actorID uint
	scope   string
	key     string
}

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected no key")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}
	if _, ok := ReplayResource(c); ok {
		t.Fatalf("expected no replay resource")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay flag must read as false")
	}
	if got := IdempotencyScope(c); got != "POST /x" {
		t.Fatalf("scope fallback = %q", got)
	}
}

func TestIdempotencyValidator_SkipsSafeMethodsAndMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	lookup := func(context.Context, uint, string, string, time.Time) (uint, bool, error) {
		called = true
		return 0, false, nil
	}
	r := gin.New()
	r.Use(withActor(lifecycle.Actor{ID: 1, Role: domain.RoleForeman}), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.GET("/requests", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Errorf("GET must not stash a key")
		}
		c.Status(http.StatusOK)
	})
	r.POST("/requests", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/requests", nil))
	if called {
		t.Fatalf("lookup must not run without a key on an unsafe method")
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 8, Pattern: regexp.MustCompile(`^[a-z0-9]+$`)}, nil))
	r.POST("/requests", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for _, key := range []string{"abcdefghi", "UPPER", "has space"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status=%d", key, w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "bad_idempotency_key" {
			t.Fatalf("key %q: body=%v", key, body)
		}
	}
}

func TestIdempotencyValidator_AnonymousSkipsLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, uint, string, string, time.Time) (uint, bool, error) {
		called = true
		return 0, false, nil
	}))
	r.POST("/requests", func(c *gin.Context) {
		if k, ok := GetIdempotencyKey(c); !ok || k != "k-1" {
			t.Errorf("expected stashed key, got %q", k)
		}
		c.Status(http.StatusCreated)
	})
	req := httptest.NewRequest(http.MethodPost, "/requests", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if called {
		t.Fatalf("lookup must not run for anonymous requests")
	}
}

func TestIdempotencyValidator_MissAndHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls []lookupCall
	lookup := func(_ context.Context, actorID uint, scope, key string, _ time.Time) (uint, bool, error) {
		calls = append(calls, lookupCall{actorID, scope, key})
		if key == "seen" {
			return 42, true, nil
		}
		return 0, false, nil
	}

	r := gin.New()
	r.Use(withActor(lifecycle.Actor{ID: 5, Role: domain.RoleForeman}), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/api/requests", func(c *gin.Context) {
		id, replay := ReplayResource(c)
		c.JSON(http.StatusOK, gin.H{"replay": replay, "id": id, "bypass": IsRateBypass(c)})
	})

	send := func(key string) map[string]any {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader("{}"))
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		return body
	}

	if b := send("fresh"); b["replay"] != false || b["bypass"] != false {
		t.Fatalf("miss: %v", b)
	}
	if b := send("seen"); b["replay"] != true || b["id"] != float64(42) || b["bypass"] != true {
		t.Fatalf("hit: %v", b)
	}
	want := lookupCall{5, "POST /api/requests", "seen"}
	if len(calls) != 2 || calls[1] != want {
		t.Fatalf("lookup calls = %+v", calls)
	}
}
