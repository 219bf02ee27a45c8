package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/dynrelay/internal/relay"
)

func TestLivenessAlwaysOK(t *testing.T) {
	registry := relay.NewRegistry()
	s := NewServer(Config{Addr: "127.0.0.1:0"}, registry, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessReflectsSetReady(t *testing.T) {
	registry := relay.NewRegistry()
	s := NewServer(Config{Addr: "127.0.0.1:0"}, registry, nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusReportsRegistrySize(t *testing.T) {
	registry := relay.NewRegistry()
	require.NoError(t, registry.Insert(relay.Stream{ID: "a"}))
	s := NewServer(Config{Addr: "127.0.0.1:0"}, registry, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registry_size":1`)
}
