package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSkipTrace(t *testing.T) {
	assert.True(t, skipTrace("/metrics"))
	assert.True(t, skipTrace("/api/health"))
	assert.True(t, skipTrace("/swagger/index.html"))
	assert.False(t, skipTrace("/api/quizzes"))
}

func TestGinMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/quizzes/:id", func(c *gin.Context) {
		_, span := StartSpan(c.Request.Context(), "child")
		span.End()
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quizzes/q1", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
