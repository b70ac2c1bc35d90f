package execution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig(baseURL)
	cfg.RequestTimeout = time.Second
	cfg.FailureThreshold = 3
	return cfg
}

func TestClientRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/run", r.URL.Path)

		var req RunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "python", req.Language)
		assert.Equal(t, "print(42)", req.Source)

		json.NewEncoder(w).Encode(RunResult{Stdout: "42\n", Status: "ok"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	result, err := client.Run(context.Background(), "python", "print(42)")
	require.NoError(t, err)
	assert.Equal(t, "42\n", result.Stdout)
	assert.Equal(t, "ok", result.Status)
}

func TestClientRunRelaysFailedRuns(t *testing.T) {
	// A run whose program failed is still a successful relay.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RunResult{Stderr: "SyntaxError", Status: "error"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	result, err := client.Run(context.Background(), "python", "print(")
	require.NoError(t, err)
	assert.Equal(t, "SyntaxError", result.Stderr)
	assert.Equal(t, "error", result.Status)
}

func TestClientRunnerErrorsTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	for i := 0; i < 3; i++ {
		_, err := client.Run(context.Background(), "go", "package main")
		require.ErrorIs(t, err, ErrRunnerUnavailable)
	}

	// Breaker is open now; the failing server is no longer consulted.
	server.Close()
	_, err := client.Run(context.Background(), "go", "package main")
	assert.ErrorIs(t, err, ErrRunnerUnavailable)
}

func TestClientUnreachableRunner(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), nil)
	_, err := client.Run(context.Background(), "python", "print(1)")
	assert.ErrorIs(t, err, ErrRunnerUnavailable)
}

func TestLanguageForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang string
		ok   bool
	}{
		{"py", "python", true},
		{"PY", "python", true},
		{"js", "javascript", true},
		{"go", "go", true},
		{"xyz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		lang, ok := LanguageForExtension(tt.ext)
		assert.Equal(t, tt.ok, ok, tt.ext)
		assert.Equal(t, tt.lang, lang, tt.ext)
	}
}
