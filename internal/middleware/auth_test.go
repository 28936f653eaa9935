package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
)

func newGuardedRouter(tokens *service.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(tokens))
	router.GET("/read", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.POST("/write", RequireRoles(Editors...), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "secret"})
	router := newGuardedRouter(tokens)

	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/read", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/read", "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesSeparatesViewersFromEditors(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "secret"})
	router := newGuardedRouter(tokens)

	viewer, err := tokens.Issue("u-viewer", models.RoleViewer, time.Hour)
	require.NoError(t, err)
	admin, err := tokens.Issue("u-admin", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	require.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/read", viewer).Code)
	require.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/write", viewer).Code)
	require.Equal(t, http.StatusNoContent, serve(router, http.MethodPost, "/write", admin).Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/write", RequireRoles(Editors...), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/write", "").Code)
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	serve(router, http.MethodGet, "/", "")
	require.Equal(t, true, meta["cache_hit"])
}
