package logging

import (
	"fmt"
	"io"
	"sync"
)

const streamTimeFormat = "2006-01-02 15:04:05"

// StreamLogger writes one line per record to an io.Writer:
//
//	YYYY-MM-DD HH:MM:SS | <E|W|I|V> | <world> | <thread> | <message>
//
// Concurrent calls to Log are serialized by a single named mutex held
// for the whole write, rather than an unnamed temporary guard that would
// construct and immediately release before the write completes.
type StreamLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamLogger wraps w. w must not be nil.
func NewStreamLogger(w io.Writer) (*StreamLogger, error) {
	if w == nil {
		return nil, fmt.Errorf("logging: stream writer must not be nil")
	}
	return &StreamLogger{w: w}, nil
}

func (l *StreamLogger) Log(record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf(
		"%s | %s | %s | %s | %s\n",
		record.Time.Format(streamTimeFormat),
		record.Level.letter(),
		record.World,
		record.Thread,
		record.Message,
	)
	_, err := io.WriteString(l.w, line)
	return err
}
