package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/CompassSecurity/vaultmedic/pkg/audit"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/format"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/docker/go-units"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	"golift.io/xtractr"
)

// filetype needs at most 262 bytes to recognize a format
const headerSize = 262

// FileOptions extend Options for corpora on disk.
type FileOptions struct {
	Options
	// NewReporter builds the reporter of each corpus file, it overrides Options.Progress.
	NewReporter func(name string, size int64) Reporter
}

// ScanFile scans the corpus at path. Archives (the HIBP download is a 7z file) are
// extracted into a temporary directory and every extracted file is scanned in turn.
// Failing to open the corpus returns no results at all.
func ScanFile(ctx context.Context, path string, entries []vault.Entry, opts FileOptions) (audit.MatchResult, Stats, error) {
	files, cleanup, err := corpusFiles(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer cleanup()

	var result audit.MatchResult
	var total Stats
	for _, file := range files {
		matches, stats, err := scanPath(ctx, file, entries, opts)
		result = append(result, matches...)
		total = total.merge(stats)
		if err != nil {
			return result, total, err
		}
	}

	return result, total, nil
}

func scanPath(ctx context.Context, path string, entries []vault.Entry, opts FileOptions) (audit.MatchResult, Stats, error) {
	// #nosec G304 - corpus path is supplied by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: opening corpus: %w", failure.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: reading corpus size: %w", failure.ErrIO, err)
	}

	scanOpts := opts.Options
	if opts.NewReporter != nil {
		scanOpts.Progress = opts.NewReporter(filepath.Base(path), info.Size())
	}

	log.Info().Str("file", path).Str("size", units.HumanSize(float64(info.Size()))).Str("mode", scanOpts.Mode.String()).Msg("Scanning corpus file")
	return Scan(ctx, f, info.Size(), entries, scanOpts)
}

func (s Stats) merge(o Stats) Stats {
	return Stats{
		Lines:             s.Lines + o.Lines,
		Chunks:            s.Chunks + o.Chunks,
		Skipped:           s.Skipped + o.Skipped,
		Bytes:             s.Bytes + o.Bytes,
		PeakBufferedLines: max(s.PeakBufferedLines, o.PeakBufferedLines),
	}
}

// corpusFiles resolves path to the files to scan and a cleanup func for extracted archives.
func corpusFiles(path string) ([]string, func(), error) {
	noop := func() {}

	archive, err := isArchive(path)
	if err != nil {
		return nil, noop, err
	}
	if !archive {
		return []string{path}, noop, nil
	}

	dir, err := os.MkdirTemp("", "vaultmedic-corpus-")
	if err != nil {
		return nil, noop, fmt.Errorf("%w: creating extraction directory: %w", failure.ErrIO, err)
	}
	trackTempDir(dir)
	cleanup := func() { removeTempDir(dir) }

	log.Info().Str("archive", path).Str("dir", dir).Msg("Corpus is an archive, extracting")
	x := &xtractr.XFile{
		FilePath:  path,
		OutputDir: dir,
		FileMode:  format.FileUserReadWrite,
		DirMode:   format.DirUserOnly,
	}
	size, extracted, _, err := xtractr.ExtractFile(x)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("%w: extracting corpus archive: %w", failure.ErrIO, err)
	}
	log.Debug().Int("files", len(extracted)).Str("size", units.HumanSize(float64(size))).Msg("Extracted corpus archive")

	var files []string
	for _, f := range extracted {
		if format.IsDirectory(f) {
			continue
		}
		if nested, _ := isArchive(f); nested {
			log.Warn().Str("file", filepath.Base(f)).Msg("Skipping nested archive inside corpus archive")
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)

	if len(files) == 0 {
		cleanup()
		return nil, noop, fmt.Errorf("%w: corpus archive %s contains no files", failure.ErrIO, filepath.Base(path))
	}
	return files, cleanup, nil
}

func isArchive(path string) (bool, error) {
	// #nosec G304 - corpus path is supplied by the user
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w: opening corpus: %w", failure.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("%w: reading corpus header: %w", failure.ErrIO, err)
	}
	return filetype.IsArchive(head[:n]), nil
}

var tempDirs sync.Map

func trackTempDir(dir string) {
	tempDirs.Store(dir, struct{}{})
}

func removeTempDir(dir string) {
	tempDirs.Delete(dir)
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed removing extracted corpus")
	}
}

// CleanupTempDirs removes all extraction directories still in use. It is meant for
// shutdown handlers that exit before deferred cleanups run.
func CleanupTempDirs() {
	tempDirs.Range(func(key, _ any) bool {
		removeTempDir(key.(string))
		return true
	})
}
