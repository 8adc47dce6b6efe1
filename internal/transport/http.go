package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 10 * time.Second

// HTTPSender posts submissions to a single endpoint.
type HTTPSender struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

// NewHTTPSender creates a sender for the given endpoint. A zero timeout uses DefaultTimeout.
func NewHTTPSender(endpoint string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSender{
		client:   &http.Client{},
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Send posts the submission as application/x-www-form-urlencoded.
// Any 2xx response is a confirmed delivery; the body is discarded.
// Headers: X-Request-ID (unique per attempt).
func (s *HTTPSender) Send(ctx context.Context, sub Submission) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(FormatBody(sub)))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrTransportFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send: %w", ErrTransportFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrTransportFailed, resp.StatusCode)
	}
	return nil
}
