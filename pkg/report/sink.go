// Package report renders audit results for humans.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/format"
	"github.com/acarl005/stripansi"
)

// Sink is the destination of the human readable report.
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	strip  bool
}

// NewSink opens the report destination. An empty path writes to stdout, anything else
// is appended to a user-only file with terminal colors removed.
func NewSink(path string) (*Sink, error) {
	if path == "" {
		return &Sink{out: os.Stdout}, nil
	}

	// #nosec G304 - report path is supplied by the user via --output
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, format.FileUserReadWrite)
	if err != nil {
		return nil, fmt.Errorf("%w: opening report file: %w", failure.ErrIO, err)
	}
	return &Sink{out: f, closer: f, strip: true}, nil
}

// NewWriterSink writes the report to w, optionally stripping ANSI escape sequences.
func NewWriterSink(w io.Writer, strip bool) *Sink {
	return &Sink{out: w, strip: strip}
}

// Println writes one report line followed by the platform newline.
func (s *Sink) Println(line string) error {
	if s.strip {
		line = stripansi.Strip(line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, line+format.GetPlatformAgnosticNewline()); err != nil {
		return fmt.Errorf("%w: writing report: %w", failure.ErrIO, err)
	}
	return nil
}

// Close releases the report file, if any.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
