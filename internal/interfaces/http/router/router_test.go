package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("mounts registrars under versioned prefix", func(t *testing.T) {
		engine := gin.New()
		group := NewDomainGroup("gangsheet", "/gangsheet")
		group.GET("/jobs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		NewRouter(engine).Register(group).Setup()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/gangsheet/jobs", nil)
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom api version", func(t *testing.T) {
		engine := gin.New()
		group := NewDomainGroup("gangsheet", "/gangsheet")
		group.GET("/jobs", func(c *gin.Context) { c.Status(http.StatusOK) })

		NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/gangsheet/jobs", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gangsheet/jobs", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		group := NewDomainGroup("gangsheet", "/gangsheet")
		group.Use(func(c *gin.Context) {
			c.Set("marker", "set-by-middleware")
			c.Next()
		})
		group.GET("/jobs", func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString("marker"))
		})

		NewRouter(engine).Register(group).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gangsheet/jobs", nil))
		assert.Equal(t, "set-by-middleware", w.Body.String())
	})

	t.Run("all verbs register", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		group := NewDomainGroup("settings", "/settings")
		group.GET("", ok).POST("", ok).PUT("", ok).DELETE("", ok)

		NewRouter(engine).Register(group).Setup()

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/settings", nil))
			assert.Equal(t, http.StatusOK, w.Code, method)
		}
	})
}

func TestDomainGroupAccessors(t *testing.T) {
	group := NewDomainGroup("gangsheet", "/gangsheet")
	assert.Equal(t, "gangsheet", group.Name())
	assert.Equal(t, "/gangsheet", group.Prefix())
}
