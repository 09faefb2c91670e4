package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/http/middleware"
	"github.com/tbourn/go-supply-backend/internal/repo"
	"github.com/tbourn/go-supply-backend/internal/services"
)

// testEnv is a gin engine wired to real services over a throwaway SQLite
// file, with identity taken from X-User-ID.
type testEnv struct {
	db *gorm.DB
	r  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	users := services.NewUserService(db)
	reqs := services.NewRequestService(db, nil)
	idem := services.NewIdempotencyService(db, time.Hour)
	h := New(users, reqs, idem)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Authenticate(middleware.AuthOptions{AllowHeader: true}, users.LookupActor),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.Lookup),
	)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.POST("/users", h.CreateUser)
	r.GET("/requests", h.ListRequests)
	r.GET("/requests/:id", h.GetRequest)
	r.GET("/requests/:id/events", h.ListRequestEvents)
	r.POST("/requests", h.CreateRequest)
	r.PATCH("/requests/:id", h.UpdateRequest)

	return &testEnv{db: db, r: r}
}

// seedCrew creates users 1 foreman, 2 supplier, 3 and 4 drivers.
func (e *testEnv) seedCrew(t *testing.T) {
	t.Helper()
	svc := services.NewUserService(e.db)
	for _, in := range []services.CreateUserInput{
		{Username: "foreman_ivan", Name: "Ivan", Role: "foreman"},
		{Username: "supplier_petr", Name: "Petr", Role: "supplier"},
		{Username: "driver_sanya", Name: "Sanya", Role: "driver"},
		{Username: "driver_micha", Name: "Micha", Role: "driver"},
	} {
		if _, err := svc.Create(context.Background(), in); err != nil {
			t.Fatalf("seed %s: %v", in.Username, err)
		}
	}
}

// do sends a request as actor (0 = anonymous) with optional extra headers
// given as name/value pairs.
func (e *testEnv) do(t *testing.T, method, path string, actor uint, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatUint(uint64(actor), 10))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return v
}
