package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithResponseMetaFillsElapsedTime(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(WithResponseMeta())

	var meta map[string]interface{}
	router.GET("/schedules", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.Status(http.StatusOK)
		meta = ExtractMeta(c)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	router.ServeHTTP(rec, req)

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])

	_, hasElapsed := meta["processing_time_ms"]
	assert.True(t, hasElapsed)
}

func TestWithResponseMetaKeepsHandlerTiming(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(WithResponseMeta())

	var meta map[string]interface{}
	router.GET("/schedules", func(c *gin.Context) {
		ensureMeta(c)["processing_time_ms"] = int64(42)
		c.Status(http.StatusOK)
		meta = ExtractMeta(c)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	router.ServeHTTP(rec, req)

	require.NotNil(t, meta)
	assert.Equal(t, int64(42), meta["processing_time_ms"])
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
	assert.Nil(t, ExtractMeta(nil))
}
