package eventode

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Logger accumulates diagnostic lines during an Integrate call and
// flushes them to Output once the run finishes, tagged with the run's
// correlation id. This mirrors the teacher's own buffered logger
// rather than a generic structured-logging package: nothing else in
// the retrieved corpus actually imports one (see DESIGN.md).
type Logger struct {
	Output io.Writer
	runID  uuid.UUID
	buff   strings.Builder
}

// NewLogger creates a Logger bound to a run id for correlation across
// lines written during a single Integrate call.
func NewLogger(w io.Writer, runID uuid.UUID) *Logger {
	return &Logger{Output: w, runID: runID}
}

// Logf appends a formatted diagnostic line. Lines are buffered and
// written to Output only when Flush is called.
func (l *Logger) Logf(format string, a ...interface{}) {
	if l == nil || l.Output == nil {
		return
	}
	fmt.Fprintf(&l.buff, "[%s] %s\n", l.runID, fmt.Sprintf(format, a...))
}

// Warnf is Logf's counterpart for conditions worth flagging but not
// fatal (e.g. an event queue re-entering its concurrency-check branch
// repeatedly), mirroring the teacher's warnf/scolorf split between
// routine and attention-worthy log lines.
func (l *Logger) Warnf(format string, a ...interface{}) {
	if l == nil || l.Output == nil {
		return
	}
	fmt.Fprintf(&l.buff, "[%s] WARN %s\n", l.runID, fmt.Sprintf(format, a...))
}

// Flush writes buffered lines to Output and resets the buffer.
func (l *Logger) Flush() {
	if l == nil || l.Output == nil {
		return
	}
	io.WriteString(l.Output, l.buff.String())
	l.buff.Reset()
}
