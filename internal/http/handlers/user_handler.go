// User HTTP handlers.
//
// This file declares the service contracts the HTTP layer depends on, the
// Handlers wiring, and the user endpoints:
//   - GET  /users       (list, ETag support)
//   - GET  /users/{id}  (fetch)
//   - POST /users       (create)
//
// Handlers are transport-thin: they validate transport-level input, call
// application services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/http/middleware"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/services"
	"github.com/tbourn/go-supply-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService manages the crew directory.
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Version fingerprints the user list for ETags.
	Version(ctx context.Context) (count int64, maxID uint, err error)
}

// RequestService manages material requests and their lifecycle. Mutating
// calls receive the acting user explicitly.
type RequestService interface {
	Create(ctx context.Context, actor lifecycle.Actor, in services.CreateRequestInput) (*domain.Request, error)
	Get(ctx context.Context, id uint) (*domain.Request, error)
	List(ctx context.Context, q services.RequestQuery) ([]domain.Request, error)
	// Version fingerprints the listing selected by q for ETags.
	Version(ctx context.Context, q services.RequestQuery) (count int64, maxUpdatedAt *time.Time, err error)
	Events(ctx context.Context, id uint) ([]domain.RequestEvent, error)
	Update(ctx context.Context, actor lifecycle.Actor, id uint, upd lifecycle.Update) (*domain.Request, error)
}

// IdempotencyStore records the resource produced by a keyed unsafe call.
type IdempotencyStore interface {
	Remember(ctx context.Context, actorID uint, scope, key string, resourceID uint, status int) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for users and requests.
type Handlers struct {
	userSvc UserService
	reqSvc  RequestService
	idem    IdempotencyStore
}

// New constructs Handlers. idem may be nil, which disables replay recording.
func New(userSvc UserService, reqSvc RequestService, idem IdempotencyStore) *Handlers {
	return &Handlers{userSvc: userSvc, reqSvc: reqSvc, idem: idem}
}

// remember records the resource produced under the request's Idempotency-Key,
// if it carried one. Failures are logged; the response is already decided.
func (h *Handlers) remember(c *gin.Context, actorID, resourceID uint, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return
	}
	if err := h.idem.Remember(c.Request.Context(), actorID, middleware.IdempotencyScope(c), key, resourceID, status); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Uint("resource_id", resourceID).Msg("idempotency record not stored")
	}
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for creating a user.
type CreateUserRequest struct {
	Username   string  `json:"username"   example:"driver_sanya"`
	Name       string  `json:"name"       example:"Sanyok (Driver)"`
	Role       string  `json:"role"       example:"driver" enums:"foreman,supplier,driver"`
	TelegramID *string `json:"telegramId" example:"11111"`
}

//
// Helpers
//

// pathID parses the :id path parameter, answering 400 when it is not a
// positive integer.
func pathID(c *gin.Context, what string) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		failField(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a positive integer", "id")
		return 0, false
	}
	return id, true
}

// notModified sets the ETag and reports whether the client already holds it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Handlers
//

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Description Returns every user in creation order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Users
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"users:4:4\")
//
// @Success     200  {array}  domain.User
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, maxID, err := h.userSvc.Version(ctx); err == nil {
		if notModified(c, fmt.Sprintf(`W/"users:%d:%d"`, count, maxID)) {
			return
		}
	}

	users, err := h.userSvc.List(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1) example(3)
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "user")
	if !valid {
		return
	}
	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user
// @Description Registers a crew member with a fixed role. Only an existing crew member may add one; the first accounts come from the seed. Usernames are unique.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateUserRequest  true  "User payload"
//
// @Success     201  {object} domain.User
// @Success     200  {object} domain.User  "Idempotent replay"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "No acting user"
// @Failure     409  {object} handlers.ErrorResponse "Username taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	actor, authed := requireActor(c)
	if !authed {
		return
	}
	if id, replay := middleware.ReplayResource(c); replay {
		if u, err := h.userSvc.Get(c.Request.Context(), id); err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, u)
			return
		}
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	u, err := h.userSvc.Create(c.Request.Context(), services.CreateUserInput{
		Username:   req.Username,
		Name:       req.Name,
		Role:       req.Role,
		TelegramID: req.TelegramID,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, actor.ID, u.ID, http.StatusCreated)
	ok(c, http.StatusCreated, u)
}
