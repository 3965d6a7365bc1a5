package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

type noUsers struct{}

func (noUsers) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	return nil, shared.NewNotFoundError("user", id)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	hello := registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/hello", func(c *gin.Context) { c.String(http.StatusOK, "hi") })
	})

	NewRouter(engine, WithAPIVersion("v2")).Register(hello).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/hello", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(EngineConfig{
		Logger:       zap.NewNop(),
		Users:        noUsers{},
		ServiceName:  "billing-test",
		CORSOrigins:  []string{"http://localhost:3000"},
		MaxBodyBytes: 64,
	})
	require.NoError(t, err)

	var seen identity.Actor
	NewRouter(engine).Register(registrarFunc(func(rg *gin.RouterGroup) {
		rg.POST("/echo", func(c *gin.Context) {
			seen = middleware.GetActor(c)
			c.Status(http.StatusNoContent)
		})
	})).Setup()

	t.Run("unknown route uses the error envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"ERR_NOT_FOUND"`)
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("chain resolves actor and headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set(middleware.HeaderUserID, uuid.NewString())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.False(t, seen.IsAuthenticated())
	})

	t.Run("body limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", http.NoBody)
		req.ContentLength = 1024
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
