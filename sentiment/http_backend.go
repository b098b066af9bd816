package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/resilience"
)

const (
	// HTTPBackendName is the registered name of the sidecar backend.
	HTTPBackendName = "http"

	defaultBackendURL      = "http://localhost:8491"
	defaultBackendTimeout  = 60 * time.Second
	defaultBackendAttempts = 3
)

// HTTPBackendConfig holds configuration for the analysis sidecar.
type HTTPBackendConfig struct {
	URL     string        `json:"url" yaml:"url" mapstructure:"url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// MaxAttempts bounds retries of transient failures per Score call.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *HTTPBackendConfig) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultBackendURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultBackendTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultBackendAttempts
	}
}

// HTTPBackend implements Backend against an HTTP analysis sidecar.
// Transient failures are retried with backoff; a persistently failing
// sidecar trips the circuit breaker so scoring fails fast until it
// recovers.
type HTTPBackend struct {
	cfg     HTTPBackendConfig
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// NewHTTPBackend creates a backend client for the analysis sidecar.
func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	cfg.ApplyDefaults()
	return &HTTPBackend{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: resilience.NewCircuitBreaker(
			resilience.DefaultCircuitBreakerConfig("sentiment-backend")),
	}
}

// Name returns the backend name.
func (b *HTTPBackend) Name() string { return HTTPBackendName }

// IsAvailable checks if the sidecar is reachable.
func (b *HTTPBackend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Score sends the transcript to the sidecar and returns its raw scores.
func (b *HTTPBackend) Score(ctx context.Context, req ScoreRequest) (*Scores, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = b.cfg.MaxAttempts
	retryCfg.RetryIf = isRetryableScoreError

	var scores *Scores
	cbErr := b.breaker.Execute(func() error {
		var err error
		scores, err = resilience.Retry(ctx, retryCfg, func() (*Scores, error) {
			return b.scoreOnce(ctx, body)
		})
		return err
	})
	if errors.Is(cbErr, resilience.ErrCircuitOpen) {
		return nil, apperrors.ExternalServiceError("sentiment backend", cbErr)
	}
	if cbErr != nil {
		return nil, cbErr
	}
	return scores, nil
}

func (b *HTTPBackend) scoreOnce(ctx context.Context, body []byte) (*Scores, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.ExternalServiceError("sentiment backend", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, apperrors.ExternalServiceError("sentiment backend", cause)
		}
		// A non-5xx failure means the sidecar rejected the request;
		// retrying the same payload cannot help.
		return nil, apperrors.Internal(fmt.Errorf("sentiment backend rejected request: %w", cause))
	}

	var scores Scores
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	return &scores, nil
}

// isRetryableScoreError retries transport failures and 5xx responses,
// which carry the retryable EXTERNAL_SERVICE_ERROR code.
func isRetryableScoreError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

var _ Backend = (*HTTPBackend)(nil)
