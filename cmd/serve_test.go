//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/leadflow-cli/internal/model"
)

func TestBuildRouter_Health(t *testing.T) {
	env := newTestEnv(t, hotModelScript(1), nil, 2, 0)
	r := buildRouter(context.Background(), env, semaphore.NewWeighted(1))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_LeadsState(t *testing.T) {
	env := newTestEnv(t, hotModelScript(1), nil, 2, 0)
	_, err := env.Store.Upsert(context.Background(), "L1", model.StatusApproved, "schedule call")
	require.NoError(t, err)

	r := buildRouter(context.Background(), env, semaphore.NewWeighted(1))
	req := httptest.NewRequest(http.MethodGet, "/leads/state", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "L1")
}

func TestBuildRouter_RunsRejectsOverlap(t *testing.T) {
	env := newTestEnv(t, hotModelScript(1), nil, 2, 0)

	// A run is already in flight.
	guard := semaphore.NewWeighted(1)
	require.True(t, guard.TryAcquire(1))

	r := buildRouter(context.Background(), env, guard)
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already in progress")
}

func TestBuildRouter_RunsAccepted(t *testing.T) {
	env := newTestEnv(t, hotModelScript(1), nil, 2, 0)
	r := buildRouter(context.Background(), env, semaphore.NewWeighted(1))

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])

	// Give the async batch time to run against the empty leads file.
	time.Sleep(10 * time.Millisecond)
}
