package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
	"venuebook/internal/pkg/validator"
	"venuebook/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/venues", h.ListVenues)
	v1.GET("/venues/:id", h.GetVenue)
	v1.GET("/halls/:id", h.GetHall)
	v1.GET("/halls/:id/blocked-dates", h.ListBlockedDates)
}

// RegisterProtectedRoutes expects JWT auth and a venue_holder/admin role check upstream.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/venues", h.CreateVenue)
	rg.POST("/venues/:id/halls", h.CreateHall)
	rg.PUT("/halls/:id", h.UpdateHall)
	rg.POST("/halls/:id/blocked-dates", h.BlockDates)
	rg.DELETE("/halls/:id/blocked-dates/:date", h.UnblockDate)
}

/* ---------- VENUE ---------- */

func (h *Handler) CreateVenue(c *gin.Context) {
	var req CreateVenueRequest
	if !bind(c, &req) {
		return
	}
	userID, role := caller(c)
	v, err := h.service.CreateVenue(c.Request.Context(), userID, role, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"venue": v})
}

func (h *Handler) GetVenue(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.service.GetVenue(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venue": v})
}

func (h *Handler) ListVenues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	f := repository.VenueFilter{
		City:    strings.TrimSpace(c.Query("city")),
		Page:    page,
		PerPage: perPage,
	}
	if owner := c.Query("owner_id"); owner != "" {
		f.OwnerID, _ = strconv.ParseInt(owner, 10, 64)
	}

	venues, total, err := h.service.ListVenues(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"items":    venues,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

/* ---------- HALL ---------- */

func (h *Handler) CreateHall(c *gin.Context) {
	venueID, ok := pathID(c)
	if !ok {
		return
	}
	var req CreateHallRequest
	if !bind(c, &req) {
		return
	}
	userID, role := caller(c)
	hall, err := h.service.CreateHall(c.Request.Context(), userID, role, venueID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"hall": hall})
}

func (h *Handler) UpdateHall(c *gin.Context) {
	hallID, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateHallRequest
	if !bind(c, &req) {
		return
	}
	userID, role := caller(c)
	hall, err := h.service.UpdateHall(c.Request.Context(), userID, role, hallID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hall": hall})
}

func (h *Handler) GetHall(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	hall, err := h.service.GetHall(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hall": hall})
}

/* ---------- BLOCKED DATES ---------- */

func (h *Handler) ListBlockedDates(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	days, err := h.service.ListBlockedDates(c.Request.Context(), id, c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blocked_dates": days})
}

func (h *Handler) BlockDates(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req BlockDatesRequest
	if !bind(c, &req) {
		return
	}
	userID, role := caller(c)
	days, err := h.service.BlockDates(c.Request.Context(), userID, role, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"blocked_dates": days})
}

func (h *Handler) UnblockDate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, role := caller(c)
	if err := h.service.UnblockDate(c.Request.Context(), userID, role, id, c.Param("date")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Date unblocked"})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Validation failed", errs)
		return false
	}
	return true
}

func caller(c *gin.Context) (int64, domain.UserRole) {
	return c.GetInt64("user_id"), domain.UserRole(c.GetString("role"))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "You do not manage this venue")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Something went wrong")
	}
}
