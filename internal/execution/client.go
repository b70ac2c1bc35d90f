// Package execution relays code snippets to an external sandboxed runner
// service. It never executes anything locally; it is a guarded HTTP client.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrRunnerUnavailable is returned when the runner cannot be reached or the
// circuit breaker is open.
var ErrRunnerUnavailable = errors.New("code runner unavailable")

// ErrUnsupportedLanguage is returned when no runner language matches the
// file's extension.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// RunRequest is the payload sent to the runner.
type RunRequest struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

// RunResult is the runner's response, relayed verbatim to the room.
type RunResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Status string `json:"status"`
}

// Config configures the runner client.
type Config struct {
	// BaseURL is the runner service root, e.g. http://runner:8090.
	BaseURL string

	// RequestTimeout bounds a single run request.
	RequestTimeout time.Duration

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the breaker.
	FailureThreshold uint32
}

// DefaultConfig returns the client defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		RequestTimeout:   30 * time.Second,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Client calls the external runner with circuit breaker protection. When the
// runner misbehaves repeatedly the breaker opens and calls fail fast with
// ErrRunnerUnavailable instead of tying up request handlers.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[RunResult]
	logger  *slog.Logger
}

// NewClient creates a runner client from config.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "code-runner",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[RunResult](settings),
		logger:  logger,
	}
}

// Run submits source code to the runner and returns its output. A non-2xx
// runner response or transport failure counts against the breaker; a run that
// merely produced stderr does not.
func (c *Client) Run(ctx context.Context, language, source string) (RunResult, error) {
	result, err := c.breaker.Execute(func() (RunResult, error) {
		return c.post(ctx, RunRequest{Language: language, Source: source})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("run rejected, circuit open")
		return RunResult{}, ErrRunnerUnavailable
	}
	if err != nil {
		return RunResult{}, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, runReq RunRequest) (RunResult, error) {
	body, err := json.Marshal(runReq)
	if err != nil {
		return RunResult{}, fmt.Errorf("encoding run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return RunResult{}, fmt.Errorf("building run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %w", ErrRunnerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return RunResult{}, fmt.Errorf("%w: runner returned %d", ErrRunnerUnavailable, resp.StatusCode)
	}

	var result RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return RunResult{}, fmt.Errorf("decoding run response: %w", err)
	}
	return result, nil
}
