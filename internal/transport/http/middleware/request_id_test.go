package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jahid-csedu/iam-system-sub000/internal/infra/logger"
)

func newRequestIDRouter(t *testing.T) (*gin.Engine, *string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		if id, ok := c.Request.Context().Value(logger.RequestIDKey{}).(string); ok {
			seen = id
		}
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestRequestIDEchoesValidInboundID(t *testing.T) {
	router, seen := newRequestIDRouter(t)
	inbound := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", inbound)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != inbound {
		t.Fatalf("expected inbound id %q to be echoed, got %q", inbound, got)
	}
	if *seen != inbound {
		t.Fatalf("expected context to carry %q, got %q", inbound, *seen)
	}
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	router, seen := newRequestIDRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid'); DROP TABLE users;--")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-ID")
	if err := uuid.Validate(got); err != nil {
		t.Fatalf("expected a generated UUID in the response, got %q", got)
	}
	if *seen != got {
		t.Fatalf("expected context id %q to match response header %q", *seen, got)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	router, _ := newRequestIDRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if err := uuid.Validate(rec.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("expected a generated UUID, got %q", rec.Header().Get("X-Request-ID"))
	}
}
