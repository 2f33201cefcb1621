// Package logger is a standardized event logging framework for shell
// sessions. Events are written as newline-delimited JSON so they can be
// followed with tail and filtered with standard tooling.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one evaluated line.
type Event struct {
	// SessionID ties every event of one shell session together.
	SessionID string `json:"session_id"`
	// Time is when evaluation finished.
	Time time.Time `json:"time"`
	// Line is the raw input line as typed, before substitution.
	Line string `json:"line"`
	// ExitCode is the pipeline's aggregate exit code.
	ExitCode int `json:"exit_code"`
	// DurationMillis is how long evaluation took.
	DurationMillis int64 `json:"duration_millis"`
	// Err carries a syntax or setup error message, if any.
	Err string `json:"err,omitempty"`
}

// Recorder accepts session events.
type Recorder interface {
	Record(ev Event) error
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(ev Event) error { return nil }

// JSONRecorder writes events as JSON lines, one object per event.
type JSONRecorder struct {
	mu        sync.Mutex
	enc       *json.Encoder
	sessionID string
}

// NewJSONRecorder creates a recorder with a fresh session ID.
func NewJSONRecorder(w io.Writer) *JSONRecorder {
	return &JSONRecorder{
		enc:       json.NewEncoder(w),
		sessionID: uuid.NewString(),
	}
}

// SessionID returns the recorder's session identifier.
func (r *JSONRecorder) SessionID() string {
	return r.sessionID
}

// Record stamps the event with the session ID and current time and
// appends it to the log.
func (r *JSONRecorder) Record(ev Event) error {
	ev.SessionID = r.sessionID
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(ev)
}

// OpenSessionLog creates a timestamped log file under dir and returns a
// recorder writing to it.
func OpenSessionLog(dir string) (*JSONRecorder, io.Closer, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, err
	}

	name := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format(time.RFC3339)))
	fd, err := os.Create(name)
	if err != nil {
		return nil, nil, err
	}

	return NewJSONRecorder(fd), fd, nil
}

// ReadJSONLinesLog parses a newline delimited JSON event log.
func ReadJSONLinesLog(r io.Reader, handler func(ev *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var ev Event
		if err := decoder.Decode(&ev); err != nil {
			return err
		}
		handler(&ev)
	}
	return nil
}
