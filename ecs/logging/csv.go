package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const csvTimeFormat = "2006-01-02 15:04:05"
const csvHeader = "time,log_level,world_name,thread_id,message\n"

// CSVLogger writes one CSV row per record to a file, quoting every field
// and doubling embedded quotes. The header row is written once, at
// construction.
type CSVLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVLogger creates (truncating if it exists) the file at path and
// writes the CSV header.
func NewCSVLogger(path string) (*CSVLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("logging: could not create log file %q: %w", path, err)
	}
	if _, err := io.WriteString(f, csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("logging: could not write header to %q: %w", path, err)
	}
	return &CSVLogger{file: f}, nil
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (l *CSVLogger) Log(record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("logging: CSV log file is closed")
	}

	row := fmt.Sprintf(
		"%s,%s,%s,%s,%s\n",
		csvQuote(record.Time.Format(csvTimeFormat)),
		csvQuote(record.Level.name()),
		csvQuote(record.World),
		csvQuote(record.Thread),
		csvQuote(record.Message),
	)
	if _, err := io.WriteString(l.file, row); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close closes the underlying file. Further calls to Log return an error.
func (l *CSVLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
