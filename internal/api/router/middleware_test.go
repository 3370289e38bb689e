package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireUserMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/protected", RequireUserMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(handler.ContextUserID))
	})

	t.Run("missing user header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/protected", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user id is propagated", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/protected", map[string]string{HeaderUserID: "user-1"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", w.Body.String())
	})
}

func TestRequireSessionMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/journal", RequireSessionMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(handler.ContextSessionID))
	})

	t.Run("missing session header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/journal", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("session id is propagated", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/journal", map[string]string{HeaderSessionID: "session-1"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "session-1", w.Body.String())
	})
}

func TestInternalAuthMiddleware(t *testing.T) {
	newRouter := func(secret string) *gin.Engine {
		r := gin.New()
		r.POST("/internal/dispatch", InternalAuthMiddleware(secret), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	t.Run("no credentials", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("scheduler trigger header", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch", map[string]string{
			HeaderSchedulerTrigger: "true",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("secret header", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch", map[string]string{
			"X-Dispatch-Secret": "s3cret",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch", map[string]string{
			"Authorization": "Bearer s3cret",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query parameter", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch?secret=s3cret", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		w := perform(newRouter("s3cret"), http.MethodPost, "/internal/dispatch", map[string]string{
			"X-Dispatch-Secret": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty configured secret rejects everything", func(t *testing.T) {
		w := perform(newRouter(""), http.MethodPost, "/internal/dispatch", map[string]string{
			"X-Dispatch-Secret": "",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
