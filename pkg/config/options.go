// Package config provides the audit option types, their validation and the optional
// YAML defaults file shared by all vaultmedic commands.
package config

import (
	"time"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/offline"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/online"
	"github.com/CompassSecurity/vaultmedic/pkg/format"
)

// VaultOptions locate and unlock the vault under audit.
type VaultOptions struct {
	Path    string
	KeyFile string
	// Output is the report file, stdout when empty.
	Output   string
	Paranoid bool
}

// OfflineOptions configure the corpus scan.
type OfflineOptions struct {
	Corpus    string
	ClearText bool
	// ChunkSize is human readable, e.g. "256MB".
	ChunkSize string
	Progress  bool
}

// OnlineOptions configure range API lookups.
type OnlineOptions struct {
	APIURL  string
	Timeout time.Duration
	Threads int
	// Yes skips the interactive consent prompt.
	Yes bool
}

// DefaultOfflineOptions returns the defaults of the offline scan.
func DefaultOfflineOptions() OfflineOptions {
	return OfflineOptions{
		ChunkSize: format.HumanBytes(offline.DefaultChunkSize),
		Progress:  true,
	}
}

// DefaultOnlineOptions returns the defaults of the online check.
func DefaultOnlineOptions() OnlineOptions {
	return OnlineOptions{
		APIURL:  online.DefaultBaseURL,
		Timeout: online.DefaultTimeout,
		Threads: online.DefaultThreads,
	}
}

// ScanOptions turns the validated offline options into scanner options.
func (o OfflineOptions) ScanOptions() (offline.Options, error) {
	size, err := ParseChunkSize(o.ChunkSize)
	if err != nil {
		return offline.Options{}, err
	}

	mode := offline.DigestMode
	if o.ClearText {
		mode = offline.ClearTextMode
	}
	return offline.Options{Mode: mode, ChunkSize: size}, nil
}

// Validate checks the online options before any lookup is made.
func (o OnlineOptions) Validate() error {
	if err := ValidateURL(o.APIURL, "API URL"); err != nil {
		return err
	}
	if err := ValidateThreadCount(o.Threads); err != nil {
		return err
	}
	return ValidateTimeout(o.Timeout)
}
