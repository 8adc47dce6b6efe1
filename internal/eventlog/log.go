// Package eventlog persists confirmed signal events and hands them off for submission.
//
// Two well-known files are used. The active log receives appends. The swap
// slot holds a pending batch that has been rotated out of the active log and
// has not yet been confirmed delivered. A single rename moves the active log
// into the swap slot, so a record always lives in exactly one of them.
package eventlog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/graze/signal-counter/internal/logic"
)

// Default locations on the device.
const (
	DefaultActivePath = "/var/lib/signalCounter/count"
	DefaultSwapPath   = "/tmp/signalCounterCount.swp"
)

var (
	// ErrStorageUnavailable means a signal could not be written. The signal is lost.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrRotationFailed means the active log could not be moved to the swap slot.
	ErrRotationFailed = errors.New("rotation failed")
	// ErrNoPending is returned when the swap slot is empty.
	ErrNoPending = errors.New("no pending batch")
)

// RotateOutcome is the result of Rotate.
type RotateOutcome string

const (
	NoPendingData  RotateOutcome = "no_pending_data"
	Rotated        RotateOutcome = "rotated"
	AlreadyPending RotateOutcome = "already_pending"
	RotationFailed RotateOutcome = "rotation_failed"
)

// State describes what is on disk.
type State struct {
	ActiveExists   bool
	ActiveRecords  int
	PendingExists  bool
	PendingRecords int
}

// Log is the durable event log plus its swap slot.
//
// Append and Rotate are serialised by a mutex held only for local file
// operations. Without it an append could open the active log, lose the race
// to the rename, and write its record into a batch that is already being sent.
type Log struct {
	fs         FS
	activePath string
	swapPath   string

	mu sync.Mutex
}

// New creates a Log on the host filesystem.
func New(activePath, swapPath string) *Log {
	return NewWithFS(OSFS{}, activePath, swapPath)
}

// NewWithFS creates a Log over the given filesystem.
func NewWithFS(fsys FS, activePath, swapPath string) *Log {
	return &Log{fs: fsys, activePath: activePath, swapPath: swapPath}
}

// ActivePath returns the location of the active log.
func (l *Log) ActivePath() string { return l.activePath }

// SwapPath returns the location of the swap slot.
func (l *Log) SwapPath() string { return l.swapPath }

// Append durably writes one record to the active log. Each call opens,
// writes, syncs and closes the file so earlier records survive a crash.
func (l *Log) Append(event logic.SignalEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(filepath.Dir(l.activePath), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrStorageUnavailable, err)
	}

	f, err := l.fs.OpenFile(l.activePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, l.activePath, err)
	}

	if _, err := f.Write(event.Record()); err != nil {
		f.Close()
		return fmt.Errorf("%w: write: %w", ErrStorageUnavailable, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync: %w", ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Rotate moves the active log into the swap slot.
//
// An existing pending batch is never replaced: it returns AlreadyPending and
// the caller must deliver that batch first. An empty or missing active log
// returns NoPendingData. A failed rename leaves the active log untouched.
func (l *Log) Rotate() (RotateOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.exists(l.swapPath)
	if err != nil {
		return RotationFailed, fmt.Errorf("%w: stat swap: %w", ErrRotationFailed, err)
	}
	if pending {
		return AlreadyPending, nil
	}

	info, err := l.fs.Stat(l.activePath)
	if errors.Is(err, fs.ErrNotExist) {
		return NoPendingData, nil
	}
	if err != nil {
		return RotationFailed, fmt.Errorf("%w: stat active: %w", ErrRotationFailed, err)
	}
	if info.Size() == 0 {
		return NoPendingData, nil
	}

	if err := l.fs.MkdirAll(filepath.Dir(l.swapPath), 0o755); err != nil {
		return RotationFailed, fmt.Errorf("%w: create swap directory: %w", ErrRotationFailed, err)
	}
	if err := l.fs.Rename(l.activePath, l.swapPath); err != nil {
		return RotationFailed, fmt.Errorf("%w: %w", ErrRotationFailed, err)
	}
	return Rotated, nil
}

// PendingExists reports whether a batch is waiting in the swap slot.
func (l *Log) PendingExists() (bool, error) {
	return l.exists(l.swapPath)
}

// ReadPending returns the full content of the pending batch.
func (l *Log) ReadPending() ([]byte, error) {
	data, err := l.fs.ReadFile(l.swapPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoPending
	}
	if err != nil {
		return nil, fmt.Errorf("read pending batch: %w", err)
	}
	return data, nil
}

// ClearPending removes the pending batch after confirmed delivery.
func (l *Log) ClearPending() error {
	if err := l.fs.Remove(l.swapPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove pending batch: %w", err)
	}
	return nil
}

// Inspect reports which files exist and how many records they hold.
func (l *Log) Inspect() (State, error) {
	var st State
	var err error

	st.ActiveExists, st.ActiveRecords, err = l.count(l.activePath)
	if err != nil {
		return State{}, err
	}
	st.PendingExists, st.PendingRecords, err = l.count(l.swapPath)
	if err != nil {
		return State{}, err
	}
	return st, nil
}

func (l *Log) exists(path string) (bool, error) {
	_, err := l.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Log) count(path string) (bool, int, error) {
	data, err := l.fs.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("read %s: %w", path, err)
	}
	return true, CountRecords(data), nil
}

// CountRecords returns the number of newline-terminated records in a batch.
func CountRecords(data []byte) int {
	return bytes.Count(data, []byte{'\n'})
}
