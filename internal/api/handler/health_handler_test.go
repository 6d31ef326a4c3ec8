package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec, err := call(t, NewHealthHandler().Liveness, http.MethodGet, "/health", "", "")
	expectStatus(t, rec, err, http.StatusOK)
}

func TestHealthDependencies_Readiness(t *testing.T) {
	ok := DependencyCheck{Name: "mongodb", Ping: func(context.Context) error { return nil }}
	down := DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	rec, err := call(t, NewHealthDependenciesHandler(ok).Readiness, http.MethodGet, "/health/ready", "", "")
	expectStatus(t, rec, err, http.StatusOK)

	rec, err = call(t, NewHealthDependenciesHandler(ok, down).Readiness, http.MethodGet, "/health/ready", "", "")
	expectStatus(t, rec, err, http.StatusServiceUnavailable)

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Error == "" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}

func TestHealthDependencies_NoChecksIsReady(t *testing.T) {
	rec, err := call(t, NewHealthDependenciesHandler().Readiness, http.MethodGet, "/health/ready", "", "")
	expectStatus(t, rec, err, http.StatusOK)
}
