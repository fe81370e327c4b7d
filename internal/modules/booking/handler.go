package booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
	"venuebook/internal/pkg/validator"
)

type Handler struct {
	service *Service
	sweeper *Sweeper
}

func NewHandler(service *Service, sweeper *Sweeper) *Handler {
	return &Handler{service: service, sweeper: sweeper}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/history", h.GetHistory)
	rg.GET("/users/me/bookings", h.GetMyBookings)
	rg.GET("/venues/:id/bookings", h.GetVenueBookings)

	rg.POST("/bookings/:id/transitions", h.ApplyEvent)
	rg.PATCH("/bookings/:id/accept", h.eventRoute(EventAccept))
	rg.PATCH("/bookings/:id/decline", h.eventRoute(EventDecline))
	rg.PATCH("/bookings/:id/withdraw", h.eventRoute(EventWithdraw))
	rg.PATCH("/bookings/:id/complete", h.eventRoute(EventComplete))
	rg.POST("/bookings/:id/payments/deposit", h.eventRoute(EventDepositSettled))
	rg.POST("/bookings/:id/payments/balance", h.eventRoute(EventBalanceSettled))
	rg.POST("/bookings/:id/payments/failed", h.eventRoute(EventPaymentFailed))
	rg.POST("/bookings/:id/cancellation", h.RequestCancellation)
	rg.PATCH("/bookings/:id/cancellation/approve", h.eventRoute(EventApproveCancellation))
	rg.PATCH("/bookings/:id/cancellation/decline", h.eventRoute(EventDeclineCancellation))
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/expiry-scan", h.RunExpiryScan)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking request", errs)
		return
	}

	start, _ := validator.ParseDate(req.StartDate)
	in := CreateBookingInput{
		HallID:    req.HallID,
		StartDate: start,
		Guests:    req.Guests,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if req.EndDate != "" {
		end, _ := validator.ParseDate(req.EndDate)
		in.EndDate = &end
	}

	b, err := h.service.CreateBooking(c.Request.Context(), actor, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": toResponse(b)})
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": toResponse(b)})
}

func (h *Handler) GetHistory(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	events, err := h.service.History(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

func (h *Handler) GetMyBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListForUser(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Items: toResponses(items), Total: total, Page: q.Page, PerPage: q.PerPage})
}

func (h *Handler) GetVenueBookings(c *gin.Context) {
	actor, venueID, ok := h.actorAndID(c)
	if !ok {
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListForVenue(c.Request.Context(), venueID, actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Items: toResponses(items), Total: total, Page: q.Page, PerPage: q.PerPage})
}

// ApplyEvent is the generic entry point: {"event": "...", "reason": "..."}.
func (h *Handler) ApplyEvent(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid transition request", errs)
		return
	}
	ev := Event(strings.TrimSpace(req.Event))
	if ev == EventPaymentExpired && actor.Role != domain.RoleAdmin {
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "This event is reserved for the system")
		return
	}
	h.transition(c, id, ev, actor, req.Reason)
}

func (h *Handler) RequestCancellation(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req CancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "A cancellation reason is required", errs)
		return
	}
	h.transition(c, id, EventRequestCancellation, actor, req.Reason)
}

func (h *Handler) eventRoute(ev Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, id, ok := h.actorAndID(c)
		if !ok {
			return
		}
		var req ReasonRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
				return
			}
		}
		h.transition(c, id, ev, actor, req.Reason)
	}
}

func (h *Handler) transition(c *gin.Context, id int64, ev Event, actor Actor, reason string) {
	b, err := h.service.Transition(c.Request.Context(), id, ev, actor, reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": toResponse(b)})
}

func (h *Handler) RunExpiryScan(c *gin.Context) {
	report, ran, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ran": ran, "report": report})
}

func (h *Handler) actorAndID(c *gin.Context) (Actor, int64, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return Actor{}, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid id")
		return Actor{}, 0, false
	}
	return actor, id, true
}

func actorFrom(c *gin.Context) (Actor, bool) {
	userID := c.GetInt64("user_id")
	role := c.GetString("role")
	if userID <= 0 || role == "" {
		return Actor{}, false
	}
	return Actor{UserID: userID, Role: domain.UserRole(role)}, true
}

func parseListQuery(c *gin.Context) (ListQuery, bool) {
	q := ListQuery{Page: 1, PerPage: 20}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	if v := c.Query("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			q.PerPage = n
		}
	}
	if v := c.Query("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := domain.BookingStatus(strings.TrimSpace(s))
			if !st.Valid() {
				response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid status filter", map[string]string{"status": string(st)})
				return q, false
			}
			q.Statuses = append(q.Statuses, st)
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		if v := c.Query(p.name); v != "" {
			d, err := validator.ParseDate(v)
			if err != nil {
				response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid date filter", map[string]string{p.name: "date"})
				return q, false
			}
			*p.dst = &d
		}
	}
	return q, true
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	var derr *DateUnavailableError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking request", verr.Fields)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeCapacityExceeded, err.Error())
	case errors.As(err, &derr):
		response.ErrorWithDetails(c, http.StatusConflict, response.CodeDateUnavailable, "Hall is not available on the requested dates", gin.H{"dates": derr.Days})
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, response.CodeInvalidTransition, err.Error())
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "You are not allowed to perform this action")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Something went wrong")
	}
}
