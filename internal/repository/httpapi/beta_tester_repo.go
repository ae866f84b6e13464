package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"beta-signup/internal/domain"
	"beta-signup/pkg/logger"
)

type betaTesterRepository struct {
	endpoint   string
	httpClient *http.Client
}

// NewBetaTesterRepository posts submissions to endpoint. A zero timeout
// leaves the request bounded only by its context.
func NewBetaTesterRepository(endpoint string, timeout time.Duration) domain.BetaTesterRepository {
	return &betaTesterRepository{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Create issues exactly one POST; there are no retries.
func (r *betaTesterRepository) Create(ctx context.Context, submission *domain.BetaTesterSubmission) error {
	payload, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &domain.BackendTransportError{Err: err}
	}
	defer resp.Body.Close()

	// The body is not part of the contract; drain it so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Warnw("Beta tester backend rejected submission",
			"status", resp.StatusCode,
			"endpoint", r.endpoint,
		)
		return &domain.BackendStatusError{
			Code:       resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	return nil
}

// Ping checks the backend answers HTTP at all; any status counts as alive.
func (r *betaTesterRepository) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendNotAvailable, err)
	}
	resp.Body.Close()
	return nil
}

// statusText returns the reason phrase the server actually sent, falling back
// to the canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
