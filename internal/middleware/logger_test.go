package middleware

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"

	"storefront-be/internal/logutil"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Info().Msg("inside handler")
		c.String(http.StatusOK, "pong")
	})

	apitest.New().
		Handler(r).
		Get("/ping").
		Header(RequestIDHeader, "req-42").
		Expect(t).
		Status(http.StatusOK).
		Header(RequestIDHeader, "req-42").
		End()

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"message":"inside handler"`)
	assert.Contains(t, out, `"path":"/ping"`)
	assert.Contains(t, out, `"status":200`)
}

func TestRequestLogger_GeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	apitest.New().
		Handler(r).
		Get("/ping").
		Expect(t).
		Status(http.StatusNoContent).
		HeaderPresent(RequestIDHeader).
		End()
}
