package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithID(t *testing.T, incoming string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return seen, w.Header().Get(headerKey)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	seen, header := serveWithID(t, "bulk-42")
	assert.Equal(t, "bulk-42", seen)
	assert.Equal(t, "bulk-42", header)
}

func TestMiddlewareReplacesMissingOrUnsafeID(t *testing.T) {
	seen, header := serveWithID(t, "")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, header)

	seen, _ = serveWithID(t, strings.Repeat("x", 80))
	_, err = uuid.Parse(seen)
	require.NoError(t, err)

	seen, _ = serveWithID(t, "id with spaces")
	_, err = uuid.Parse(seen)
	require.NoError(t, err)
}
