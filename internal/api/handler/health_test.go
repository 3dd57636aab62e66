package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler()
	c, rec := newContext(http.MethodGet, "/health", requestOpts{})
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := HealthCheck{Name: "store", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	c, rec := newContext(http.MethodGet, "/health/ready", requestOpts{})
	if err := NewHealthHandler(ok).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	c, rec = newContext(http.MethodGet, "/health/ready", requestOpts{})
	if err := NewHealthHandler(ok, down).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusServiceUnavailable)

	var resp readinessResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "degraded" || resp.Dependencies["redis"].Error != "connection refused" || resp.Dependencies["store"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}
