package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_PerUser(t *testing.T) {
	store, err := NewLimiterStore(nil, "test")
	require.NoError(t, err)
	mw, err := RateLimit(store, "2-M")
	require.NoError(t, err)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-User") == "1" {
			c.Set(ContextUserID, int64(1))
		} else {
			c.Set(ContextUserID, int64(2))
		}
		c.Next()
	}, mw)
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("1"))
	assert.Equal(t, http.StatusOK, hit("1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("1"))
	assert.Equal(t, http.StatusOK, hit("2"))
}

func TestRateLimit_BadFormat(t *testing.T) {
	store, err := NewLimiterStore(nil, "test")
	require.NoError(t, err)
	_, err = RateLimit(store, "sixty per minute")
	assert.Error(t, err)
}
