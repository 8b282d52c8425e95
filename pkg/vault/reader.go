package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
)

// Format identifies a supported vault export.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatKeePass   Format = "kdbx"
	FormatBitwarden Format = "json"
)

// DetectFormat selects the reader by file extension. Quotes and blanks that terminals
// leave around dragged-in paths are ignored.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(strings.Trim(filepath.Ext(CleanPath(path)), ". '\""))
	switch Format(ext) {
	case FormatCSV, FormatKeePass, FormatBitwarden:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("%w: unsupported vault file extension %q (expected .csv, .kdbx or .json)", failure.ErrConfiguration, ext)
	}
}

// CleanPath strips surrounding quotes and spaces from a user supplied path.
func CleanPath(path string) string {
	return strings.Trim(path, "' \"")
}

// NeedsKey reports whether the format is encrypted and requires key material.
func (f Format) NeedsKey() bool {
	return f == FormatKeePass
}

// Open reads the vault at path with the reader matching its extension.
// key is only used for KeePass databases.
func Open(path string, key KeePassKey) ([]Entry, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - vault path is supplied by the user auditing their own vault
	f, err := os.Open(CleanPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: opening vault: %w", failure.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case FormatKeePass:
		return ReadKeePass(f, key)
	case FormatBitwarden:
		return ReadBitwardenJSON(f)
	default:
		return ReadCSV(f)
	}
}
