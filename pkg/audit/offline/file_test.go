package offline

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeZipCorpus(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	entry := vault.NewEntry("Mail", "", "alice", "hunter2")
	path := writeCorpus(t, dir, "hashes.txt", filler(5)+entry.Digest+":42\r\n")

	var reporters []string
	var sizes []int64
	opts := FileOptions{
		Options: Options{Mode: DigestMode},
		NewReporter: func(name string, size int64) Reporter {
			reporters = append(reporters, name)
			sizes = append(sizes, size)
			return nil
		},
	}

	result, stats, err := ScanFile(context.Background(), path, []vault.Entry{entry}, opts)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(42), result[0].Appearances)
	assert.Equal(t, int64(6), stats.Lines)
	assert.Equal(t, []string{"hashes.txt"}, reporters)
	assert.Equal(t, []int64{int64(5*43 + 45)}, sizes)
}

func TestScanFile_EmptyFile(t *testing.T) {
	path := writeCorpus(t, t.TempDir(), "empty.txt", "")

	result, stats, err := ScanFile(context.Background(), path, []vault.Entry{vault.NewEntry("A", "", "a", "x")}, FileOptions{})

	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, stats.Lines)
}

func TestScanFile_MissingFile(t *testing.T) {
	result, _, err := ScanFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), nil, FileOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrIO)
	assert.Nil(t, result)
}

func TestScanFile_ZipArchive(t *testing.T) {
	dir := t.TempDir()
	a := vault.NewEntry("A", "", "alice", "hunter2")
	b := vault.NewEntry("B", "", "bob", "letmein")
	path := writeZipCorpus(t, dir, map[string]string{
		"part-1.txt": a.Digest + ":3\n" + filler(4),
		"part-2.txt": filler(4) + b.Digest + ":8\n",
	})

	result, stats, err := ScanFile(context.Background(), path, []vault.Entry{a, b}, FileOptions{Options: Options{Mode: DigestMode}})

	require.NoError(t, err)
	assert.ElementsMatch(t, []vault.Entry{a, b}, result.Entries())
	assert.Equal(t, int64(10), stats.Lines)
	assert.Equal(t, int64(2), stats.Chunks)

	CleanupTempDirs()
	tempDirs.Range(func(key, _ any) bool {
		t.Errorf("extraction directory %v still tracked", key)
		return true
	})
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()

	plain := writeCorpus(t, dir, "plain.txt", filler(2))
	archive, err := isArchive(plain)
	require.NoError(t, err)
	assert.False(t, archive)

	zipped := writeZipCorpus(t, dir, map[string]string{"a.txt": filler(1)})
	archive, err = isArchive(zipped)
	require.NoError(t, err)
	assert.True(t, archive)

	_, err = isArchive(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, failure.ErrIO)
}

func TestStatsMerge(t *testing.T) {
	merged := Stats{Lines: 1, Chunks: 1, Skipped: 1, Bytes: 10, PeakBufferedLines: 7}.
		merge(Stats{Lines: 2, Chunks: 3, Skipped: 0, Bytes: 5, PeakBufferedLines: 4})

	assert.Equal(t, Stats{Lines: 3, Chunks: 4, Skipped: 1, Bytes: 15, PeakBufferedLines: 7}, merged)
}
