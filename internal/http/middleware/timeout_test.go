package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTimeoutRouter(d time.Duration, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(d))
	r.GET("/test", handler)
	return r
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func TestTimeout_HandlerCompletesInTime(t *testing.T) {
	r := newTimeoutRouter(100*time.Millisecond, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if w := serve(r); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestTimeout_ContextHasDeadline(t *testing.T) {
	r := newTimeoutRouter(500*time.Millisecond, func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			t.Error("context has no deadline")
		}
		c.Status(http.StatusOK)
	})
	serve(r)
}

func TestTimeout_503WhenHandlerExitsWithoutWriting(t *testing.T) {
	r := newTimeoutRouter(5*time.Millisecond, func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	if w := serve(r); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestTimeout_HandlerResponseNotOverwritten(t *testing.T) {
	r := newTimeoutRouter(5*time.Millisecond, func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"done": true})
		time.Sleep(20 * time.Millisecond)
	})
	if w := serve(r); w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}
