// Request HTTP handlers.
//
// This file exposes REST endpoints for material requests:
//   - GET   /requests              (role-aware list, ETag support)
//   - GET   /requests/{id}         (fetch)
//   - GET   /requests/{id}/events  (status history)
//   - POST  /requests              (create, Idempotency-Key support)
//   - PATCH /requests/{id}         (edit details and/or move status)
//
// Mutating endpoints require an authenticated actor (see
// middleware.Authenticate); the role is never read from the body.
//
// Idempotency:
// When a POST carries an Idempotency-Key that the same actor already used
// successfully, the stored request is returned with 200 and
// `Idempotency-Replayed: true` instead of creating a duplicate.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/http/middleware"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/services"
)

//
// DTOs
//

// CreateRequestBody is the JSON payload for creating a request.
type CreateRequestBody struct {
	Location     string      `json:"location"     example:"Site A (City Center)"`
	Material     string      `json:"material"     example:"Concrete M300"`
	Quantity     int         `json:"quantity"     example:"5" minimum:"1"`
	Unit         string      `json:"unit"         example:"m3"`
	DeliveryDate domain.Date `json:"deliveryDate" swaggertype:"string" format:"date" example:"2025-06-01"`
	Comment      *string     `json:"comment"      example:"Gate 2, call on arrival"`
	// CreatedByID defaults to the acting foreman; any other value is refused.
	CreatedByID uint `json:"createdById" example:"1"`
}

// UpdateRequestBody is the JSON payload for PATCH /requests/{id}. Omitted
// fields stay unchanged; an empty comment clears it.
type UpdateRequestBody struct {
	Status       *domain.Status `json:"status"       example:"in_progress" enums:"new,in_progress,completed,archived"`
	DriverID     *uint          `json:"driverId"     example:"3"`
	Location     *string        `json:"location"     example:"Site B (Industrial Zone)"`
	Material     *string        `json:"material"     example:"Bricks Red"`
	Quantity     *int           `json:"quantity"     example:"2000"`
	Unit         *string        `json:"unit"         example:"pcs"`
	DeliveryDate *domain.Date   `json:"deliveryDate" swaggertype:"string" format:"date" example:"2025-06-02"`
	Comment      *string        `json:"comment"      example:""`
}

func (b UpdateRequestBody) update() lifecycle.Update {
	return lifecycle.Update{
		Status:       b.Status,
		DriverID:     b.DriverID,
		Location:     b.Location,
		Material:     b.Material,
		Quantity:     b.Quantity,
		Unit:         b.Unit,
		DeliveryDate: b.DeliveryDate,
		Comment:      b.Comment,
	}
}

//
// Helpers
//

// requireActor returns the authenticated actor or answers 401.
func requireActor(c *gin.Context) (lifecycle.Actor, bool) {
	a, found := middleware.ActorFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return lifecycle.Actor{}, false
	}
	return a, true
}

// requestsETag fingerprints a listing: its filter plus row count and latest
// modification.
func requestsETag(q services.RequestQuery, count int64, maxUnixMilli int64) string {
	var uid uint
	if q.UserID != nil {
		uid = *q.UserID
	}
	var st domain.Status
	if q.Status != nil {
		st = *q.Status
	}
	return fmt.Sprintf(`W/"requests:%s:%d:%s:%d:%d"`, q.Role, uid, st, count, maxUnixMilli)
}

//
// Handlers
//

// ListRequests godoc
// @ID          listRequests
// @Summary     List requests
// @Description Drivers (role=driver&userId=N) see requests assigned to them, soonest delivery first.
// @Description Foremen (role=foreman&userId=N) see the requests they created, newest first.
// @Description Any other combination lists every request, newest first. status narrows any view.
// @Tags        Requests
// @Produce     json
//
// @Param       role           query   string  false "Viewer role"     Enums(foreman, supplier, driver)
// @Param       userId         query   int     false "Viewer user id"  minimum(1)
// @Param       status         query   string  false "Status filter"   Enums(new, in_progress, completed, archived)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.Request
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad filter"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := services.ParseRequestQuery(c.Query("role"), c.Query("userId"), c.Query("status"))
	if err != nil {
		failErr(c, err)
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.reqSvc.Version(ctx, q); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixMilli()
		}
		if notModified(c, requestsETag(q, count, ts)) {
			return
		}
	}

	items, err := h.reqSvc.List(ctx, q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get a request
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  int  true  "Request ID"  minimum(1) example(7)
//
// @Success     200  {object} domain.Request
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := pathID(c, "request")
	if !valid {
		return
	}
	r, err := h.reqSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListRequestEvents godoc
// @ID          listRequestEvents
// @Summary     Request status history
// @Description Returns one entry per creation and status transition, oldest first.
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  int  true  "Request ID"  minimum(1) example(7)
//
// @Success     200  {array}  domain.RequestEvent
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests/{id}/events [get]
func (h *Handlers) ListRequestEvents(c *gin.Context) {
	id, valid := pathID(c, "request")
	if !valid {
		return
	}
	events, err := h.reqSvc.Events(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, events)
}

// CreateRequest godoc
// @ID          createRequest
// @Summary     Create a request
// @Description A foreman files a material request; it starts as "new" with no driver.
// @Description Supports idempotency via the Idempotency-Key header (same key → same request, 200 on replay).
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       X-User-ID        header  string  false "Acting user id (development only)"  example(1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"    example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateRequestBody  true  "Request payload"
//
// @Success     201  {object} domain.Request
// @Success     200  {object} domain.Request  "Idempotent replay"
// @Header      200  {string} Idempotency-Replayed "true on replay"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Not authenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not a foreman, or not on own behalf"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	ctx := c.Request.Context()
	actor, authed := requireActor(c)
	if !authed {
		return
	}

	// Idempotency (replay path).
	if id, replay := middleware.ReplayResource(c); replay {
		if r, err := h.reqSvc.Get(ctx, id); err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, r)
			return
		}
	}

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		failBind(c, err)
		return
	}

	r, err := h.reqSvc.Create(ctx, actor, services.CreateRequestInput{
		Location:     body.Location,
		Material:     body.Material,
		Quantity:     body.Quantity,
		Unit:         body.Unit,
		DeliveryDate: body.DeliveryDate,
		Comment:      body.Comment,
		CreatedByID:  body.CreatedByID,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	h.remember(c, actor.ID, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// UpdateRequest godoc
// @ID          updateRequest
// @Summary     Update a request
// @Description Partial update. Foremen edit details of their own "new" requests; suppliers move
// @Description new → in_progress with a driverId; the assigned driver moves in_progress → completed.
// @Description A retried call with the same Idempotency-Key returns the current request with Idempotency-Replayed: true.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       X-User-ID        header  string  false "Acting user id (development only)"  example(2)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"    example(dispatch-7)
// @Param       id               path    int     true  "Request ID"  minimum(1) example(7)
// @Param       body             body    handlers.UpdateRequestBody  true  "Fields to change"
//
// @Success     200  {object} domain.Request
// @Header      200  {string} Idempotency-Replayed "true on replay"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed, invalid transition, terminal state or immutable after dispatch"
// @Failure     401  {object} handlers.ErrorResponse "Not authenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not allowed for this actor"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     409  {object} handlers.ErrorResponse "Changed concurrently"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests/{id} [patch]
func (h *Handlers) UpdateRequest(c *gin.Context) {
	actor, authed := requireActor(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "request")
	if !valid {
		return
	}
	ctx := c.Request.Context()

	// The scope is the route template, so a key reused on another request
	// is not a replay of this one.
	if rid, replay := middleware.ReplayResource(c); replay && rid == id {
		if r, err := h.reqSvc.Get(ctx, id); err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, r)
			return
		}
	}

	var body UpdateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		failBind(c, err)
		return
	}
	if body.Status != nil {
		st, _ := domain.ParseStatus(string(*body.Status))
		body.Status = &st
	}

	r, err := h.reqSvc.Update(ctx, actor, id, body.update())
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, actor.ID, r.ID, http.StatusOK)
	ok(c, http.StatusOK, r)
}
