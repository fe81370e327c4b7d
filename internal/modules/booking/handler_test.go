package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/middleware"
	"venuebook/internal/pkg/jwt"
	"venuebook/internal/testutil"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type apiFixture struct {
	*fixture
	router *gin.Engine
	tokens *jwt.Service
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t, defaultHall())
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))

	h := NewHandler(f.svc, NewSweeper(f.svc, nil, time.Minute, nil))
	h.RegisterRoutes(protected)
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	h.RegisterAdminRoutes(admin)

	return &apiFixture{fixture: f, router: r, tokens: tokens}
}

func (a *apiFixture) do(t *testing.T, method, path string, user *domain.User, body any) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := a.tokens.GenerateToken(user.ID, string(user.Role))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (a *apiFixture) createViaAPI(t *testing.T) int64 {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/bookings", a.planner, gin.H{
		"hall_id":    a.hall.ID,
		"start_date": "2025-06-01",
		"guests":     120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Booking BookingResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Booking.ID
}

func TestHandler_CreateBooking(t *testing.T) {
	a := newAPIFixture(t)

	w, env := a.do(t, http.MethodPost, "/bookings", a.planner, gin.H{
		"hall_id":    a.hall.ID,
		"start_date": "2025-06-01",
		"guests":     120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var data struct {
		Booking BookingResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, domain.BookingRequested, data.Booking.Status)
	assert.Equal(t, "2025-06-01", data.Booking.StartDate)
	assert.EqualValues(t, 800000, data.Booking.TotalAmount)
	assert.EqualValues(t, 200000, data.Booking.DepositAmount)
}

func TestHandler_CreateBooking_Errors(t *testing.T) {
	a := newAPIFixture(t)

	w, env := a.do(t, http.MethodPost, "/bookings", nil, gin.H{"hall_id": a.hall.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, env = a.do(t, http.MethodPost, "/bookings", a.planner, gin.H{
		"hall_id":    a.hall.ID,
		"start_date": "2025-06-01",
		"guests":     500,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error.Code)

	w, env = a.do(t, http.MethodPost, "/bookings", a.planner, gin.H{
		"hall_id":    a.hall.ID,
		"start_date": "01/06/2025",
		"guests":     10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestHandler_AcceptFlow(t *testing.T) {
	a := newAPIFixture(t)
	id := a.createViaAPI(t)
	path := fmt.Sprintf("/bookings/%d/accept", id)

	w, env := a.do(t, http.MethodPatch, path, a.planner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, _ = a.do(t, http.MethodPatch, path, a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.do(t, http.MethodPatch, path, a.owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	w, env = a.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d/history", id), a.planner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Events []domain.BookingEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Events, 2)
	assert.Equal(t, domain.BookingRequested, data.Events[0].ToStatus)
	assert.Equal(t, domain.BookingAccepted, data.Events[1].ToStatus)
}

func TestHandler_DateUnavailableDetails(t *testing.T) {
	a := newAPIFixture(t)
	first := a.createViaAPI(t)
	second := a.createViaAPI(t)

	w, _ := a.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d/accept", first), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := a.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d/accept", second), a.owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DATE_UNAVAILABLE", env.Error.Code)
	assert.JSONEq(t, `{"dates":["2025-06-01"]}`, string(env.Error.Details))
}

func TestHandler_Cancellation(t *testing.T) {
	a := newAPIFixture(t)
	id := a.createViaAPI(t)
	w, _ := a.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d/accept", id), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/bookings/%d/cancellation", id)
	w, env := a.do(t, http.MethodPost, path, a.planner, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, _ = a.do(t, http.MethodPost, path, a.planner, gin.H{"reason": "guest list changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.do(t, http.MethodPatch, path+"/approve", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Booking BookingResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, domain.BookingCancelled, data.Booking.Status)
}

func TestHandler_GenericTransitionRejectsSystemEvent(t *testing.T) {
	a := newAPIFixture(t)
	id := a.createViaAPI(t)

	w, env := a.do(t, http.MethodPost, fmt.Sprintf("/bookings/%d/transitions", id), a.owner, gin.H{"event": "payment_expired"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestHandler_ExpiryScanIsAdminOnly(t *testing.T) {
	a := newAPIFixture(t)

	w, _ := a.do(t, http.MethodPost, "/admin/expiry-scan", a.owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := a.do(t, http.MethodPost, "/admin/expiry-scan", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Ran    bool       `json:"ran"`
		Report ScanReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Ran)
}

func TestHandler_GetBookingHidesOthersBookings(t *testing.T) {
	a := newAPIFixture(t)
	id := a.createViaAPI(t)
	stranger := testutil.CreateUser(t, a.db, "stranger@example.com", domain.RolePlanner)

	w, env := a.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", id), stranger, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = a.do(t, http.MethodGet, "/bookings/999999", stranger, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = a.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", id), a.owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_CreateBookingRangeTooLong(t *testing.T) {
	a := newAPIFixture(t)

	w, env := a.do(t, http.MethodPost, "/bookings", a.planner, gin.H{
		"hall_id":    a.hall.ID,
		"start_date": "2025-06-01",
		"end_date":   "2200-01-01",
		"guests":     10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
