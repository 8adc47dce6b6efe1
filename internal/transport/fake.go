package transport

import (
	"context"
	"sync"
)

// FakeSender records submissions for test assertions.
type FakeSender struct {
	mu sync.Mutex

	// Submissions contains every submission passed to Send, including failed ones.
	Submissions []Submission

	// SendError, if set, will be returned by Send.
	SendError error

	// Block, if set, makes Send wait until the channel is closed.
	Block chan struct{}
}

// NewFakeSender creates a FakeSender that always succeeds.
func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

// Send records the submission.
func (f *FakeSender) Send(ctx context.Context, sub Submission) error {
	f.mu.Lock()
	batch := append([]byte(nil), sub.Batch...)
	f.Submissions = append(f.Submissions, Submission{DeviceID: sub.DeviceID, Batch: batch})
	block := f.Block
	err := f.SendError
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Calls returns the number of Send calls so far.
func (f *FakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Submissions)
}

// SetError changes the error returned by subsequent calls.
func (f *FakeSender) SetError(err error) {
	f.mu.Lock()
	f.SendError = err
	f.mu.Unlock()
}
