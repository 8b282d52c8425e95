// Package offline checks vault entries against a breached-password corpus on disk.
//
// The corpus may be far larger than memory. It is streamed line by line into a chunk
// buffer that is compared against the entries and cleared whenever its accumulated
// size crosses the chunk threshold, so peak memory is bounded by the threshold and
// the number of entries, never by the corpus size.
package offline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CompassSecurity/vaultmedic/pkg/audit"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
)

// BreachMatchMode selects how a corpus line is compared against an entry.
type BreachMatchMode int

const (
	// DigestMode compares the first 40 characters of a line against the entry digest.
	DigestMode BreachMatchMode = iota
	// ClearTextMode compares the whole line against the entry password.
	ClearTextMode
)

func (m BreachMatchMode) String() string {
	switch m {
	case DigestMode:
		return "sha1"
	case ClearTextMode:
		return "cleartext"
	default:
		return "unknown"
	}
}

const (
	// DefaultChunkSize bounds the chunk buffer to a few hundred megabytes.
	DefaultChunkSize int64 = 256 * units.MiB
	// MaxLineLength is the longest corpus line that is still considered a record.
	MaxLineLength = 4 * units.KiB

	readBufferSize = 64 * units.KiB
)

// Options configure a single scan.
type Options struct {
	Mode BreachMatchMode
	// ChunkSize is the accumulated byte size that triggers a drain. DefaultChunkSize when <= 0.
	ChunkSize int64
	// Progress is advanced once per drained chunk. Nil hides progress.
	Progress Reporter
}

// Stats describe a finished or interrupted scan.
type Stats struct {
	Lines             int64
	Chunks            int64
	Skipped           int64
	Bytes             int64
	PeakBufferedLines int
}

// Scan streams the corpus in r and returns every entry confirmed by a corpus line.
// size is the corpus length in bytes and only used for diagnostics.
//
// A read error mid-stream returns the matches of all chunks drained before the error
// together with an error wrapping failure.ErrIO. The chunk being accumulated at that
// point is discarded. Cancellation is checked at chunk boundaries and behaves the same
// way with ctx.Err(). Progress is finished on every return.
func Scan(ctx context.Context, r io.Reader, size int64, entries []vault.Entry, opts Options) (audit.MatchResult, Stats, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	progress := opts.Progress
	if progress == nil {
		progress = nopReporter{}
	}

	log.Debug().
		Str("mode", opts.Mode.String()).
		Str("corpusSize", units.BytesSize(float64(size))).
		Str("chunkSize", units.BytesSize(float64(opts.ChunkSize))).
		Int("entries", len(entries)).
		Msg("Starting offline corpus scan")

	s := newChunkScanner(entries, opts.Mode)
	reader := bufio.NewReaderSize(r, readBufferSize)

	for {
		line, overlong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.buf.reset()
			progress.Finish()
			return s.result, s.stats, fmt.Errorf("%w: reading corpus after %d lines: %w", failure.ErrIO, s.stats.Lines, err)
		}

		s.stats.Lines++
		s.stats.Bytes += int64(len(line)) + 1
		if overlong {
			s.stats.Skipped++
			log.Debug().Int64("line", s.stats.Lines).Msg("Skipping overlong corpus line")
			continue
		}

		s.buf.add(line)
		s.stats.PeakBufferedLines = max(s.stats.PeakBufferedLines, len(s.buf.lines))

		if s.buf.size > opts.ChunkSize {
			progress.Add(s.drain())
			if err := ctx.Err(); err != nil {
				progress.Finish()
				return s.result, s.stats, err
			}
		}
	}

	// the trailing chunk never reached the threshold but holds real records
	if len(s.buf.lines) > 0 {
		progress.Add(s.drain())
	}
	progress.Finish()

	log.Debug().
		Int64("lines", s.stats.Lines).
		Int64("chunks", s.stats.Chunks).
		Int64("skipped", s.stats.Skipped).
		Int("matches", len(s.result)).
		Msg("Finished offline corpus scan")

	return s.result, s.stats, nil
}

type chunk struct {
	lines []string
	size  int64
}

func (c *chunk) add(line string) {
	c.lines = append(c.lines, line)
	c.size += int64(len(line)) + 1
}

func (c *chunk) reset() {
	clear(c.lines)
	c.lines = c.lines[:0]
	c.size = 0
}

type chunkScanner struct {
	mode   BreachMatchMode
	index  map[string][]vault.Entry
	buf    chunk
	result audit.MatchResult
	stats  Stats
}

// newChunkScanner indexes the entries by their comparison key. Looking a line up in the
// index yields the matching entries in vault order, which is exactly what comparing the
// line against every entry in turn would produce.
func newChunkScanner(entries []vault.Entry, mode BreachMatchMode) *chunkScanner {
	index := make(map[string][]vault.Entry, len(entries))
	for _, e := range entries {
		key := e.Digest
		if mode == ClearTextMode {
			key = e.Password
		}
		index[key] = append(index[key], e)
	}
	return &chunkScanner{mode: mode, index: index}
}

// drain compares every buffered line against the entries, clears the buffer and
// returns the byte size of the drained chunk.
func (s *chunkScanner) drain() int64 {
	s.stats.Chunks++
	skipped := int64(0)

	for _, line := range s.buf.lines {
		key, appearances, err := s.parse(line)
		if err != nil {
			skipped++
			log.Trace().Err(err).Int64("chunk", s.stats.Chunks).Msg("Skipping malformed corpus line")
			continue
		}
		for _, e := range s.index[key] {
			s.result = append(s.result, audit.Breach{Entry: e, Appearances: appearances})
		}
	}

	if skipped > 0 {
		s.stats.Skipped += skipped
		log.Debug().Int64("chunk", s.stats.Chunks).Int64("skipped", skipped).Msg("Skipped malformed corpus lines")
	}

	drained := s.buf.size
	s.buf.reset()
	return drained
}

// parse extracts the comparison key of a corpus line and, in digest mode, its occurrence count.
func (s *chunkScanner) parse(line string) (string, int64, error) {
	if s.mode == ClearTextMode {
		// blank lines never match since entries always carry a password
		return line, 0, nil
	}

	if len(line) < vault.DigestLength {
		return "", 0, fmt.Errorf("%w: line of %d characters is too short for a digest", failure.ErrParse, len(line))
	}

	key, rest := line[:vault.DigestLength], line[vault.DigestLength:]
	if rest == "" {
		return key, 0, nil
	}
	if rest[0] != ':' {
		return "", 0, fmt.Errorf("%w: expected ':' after digest", failure.ErrParse)
	}

	count, err := strconv.ParseUint(strings.TrimSpace(rest[1:]), 10, 63)
	if err != nil {
		return "", 0, fmt.Errorf("%w: occurrence count: %w", failure.ErrParse, err)
	}
	return key, int64(count), nil
}

// readLine returns the next line without its line ending. Lines longer than
// MaxLineLength are consumed completely and reported as overlong.
func readLine(r *bufio.Reader) (string, bool, error) {
	var sb strings.Builder
	overlong := false

	for {
		part, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (sb.Len() > 0 || overlong) {
				break
			}
			return "", false, err
		}

		if !overlong {
			if sb.Len()+len(part) > MaxLineLength {
				overlong = true
				sb.Reset()
			} else {
				sb.Write(part)
			}
		}

		if !isPrefix {
			break
		}
	}

	return strings.TrimSuffix(sb.String(), "\r"), overlong, nil
}
