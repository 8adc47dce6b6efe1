// Package transport delivers pending batches to the remote collector.
package transport

import (
	"context"
	"errors"
	"net/url"
)

// ErrTransportFailed covers network errors, timeouts and non-success responses.
var ErrTransportFailed = errors.New("transport failed")

// Submission is one outbound delivery: the device identity and the raw batch.
type Submission struct {
	DeviceID string
	Batch    []byte
}

// Sender delivers a submission. A nil error means the collector confirmed receipt.
type Sender interface {
	Send(ctx context.Context, sub Submission) error
}

// FormatBody returns the form-encoded request body. Both fields are
// percent-encoded so the newlines in the batch survive transport.
func FormatBody(sub Submission) string {
	return "macAddress=" + url.QueryEscape(sub.DeviceID) + "&csv=" + url.QueryEscape(string(sub.Batch))
}
