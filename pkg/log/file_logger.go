package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileExtension is the conventional extension for protocol log files.
const FileExtension = ".elog"

// FileLogger appends CBOR-encoded events to a file. Payloads may carry
// serial numbers, so new files are created owner-only.
type FileLogger struct {
	path string

	mu      sync.Mutex
	f       *os.File
	enc     *cbor.Encoder
	written int
	dropped int
}

// NewFileLogger opens path for appending, creating it with mode 0600.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open protocol log %s: %w", path, err)
	}
	return &FileLogger{path: path, f: f, enc: NewEncoder(f)}, nil
}

// Path returns the file the logger writes to.
func (l *FileLogger) Path() string { return l.path }

// Log appends event. Events that fail to encode, or arrive after Close,
// are counted as dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		l.dropped++
		return
	}
	if err := l.enc.Encode(event); err != nil {
		l.dropped++
		return
	}
	l.written++
}

// Written returns the number of events stored so far.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Dropped returns the number of events that were not stored.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close syncs and closes the file. Further calls are no-ops.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync protocol log %s: %w", l.path, err)
	}
	return f.Close()
}

var _ Logger = (*FileLogger)(nil)
