package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddleware_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinMiddleware("metrics-test"))
	engine.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/items/"+id, nil)
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	count := testutil.ToFloat64(RequestsTotal.WithLabelValues("metrics-test", "GET", "/items/:id", "200"))
	assert.Equal(t, float64(3), count)
}

func TestGinMiddleware_Unmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinMiddleware("metrics-test-404"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	count := testutil.ToFloat64(RequestsTotal.WithLabelValues("metrics-test-404", "GET", "unmatched", "404"))
	assert.Equal(t, float64(1), count)
}
