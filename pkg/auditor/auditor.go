// Package auditor runs the selected vault checks and writes the report.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/duplicates"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/offline"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/online"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/weak"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/CompassSecurity/vaultmedic/pkg/format"
	"github.com/CompassSecurity/vaultmedic/pkg/httpclient"
	"github.com/CompassSecurity/vaultmedic/pkg/logging"
	"github.com/CompassSecurity/vaultmedic/pkg/report"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	connectivityTimeout = 5 * time.Second
	rangeRetries        = 3
)

// Options select the checks of one audit run. A nil Offline or Online disables that check.
type Options struct {
	Vault      config.VaultOptions
	Offline    *config.OfflineOptions
	Online     *config.OnlineOptions
	Duplicates bool
	Weak       bool
	// Color enables ANSI colors in the report, they are stripped again for report files.
	Color bool
	// ProgressOut receives offline progress bars when enabled.
	ProgressOut io.Writer
	// HTTPClient overrides the range API client.
	HTTPClient *retryablehttp.Client
}

func (o Options) anyCheck() bool {
	return o.Offline != nil || o.Online != nil || o.Duplicates || o.Weak
}

// Validate rejects an unusable audit request before the vault is touched.
func Validate(opts Options) error {
	if !opts.anyCheck() {
		return fmt.Errorf("%w: no check selected, choose at least one of online, offline, duplicates or weak", failure.ErrConfiguration)
	}
	if opts.Vault.Path == "" {
		return fmt.Errorf("%w: vault path is required", failure.ErrConfiguration)
	}
	if _, err := vault.DetectFormat(opts.Vault.Path); err != nil {
		return err
	}
	if opts.Vault.Paranoid && opts.Online != nil {
		return fmt.Errorf("%w: the online check contacts the internet and cannot run in paranoid mode", failure.ErrConfiguration)
	}

	if opts.Offline != nil {
		if opts.Offline.Corpus == "" {
			return fmt.Errorf("%w: the offline check needs a corpus file", failure.ErrConfiguration)
		}
		if _, err := opts.Offline.ScanOptions(); err != nil {
			return err
		}
	}
	if opts.Online != nil {
		if err := opts.Online.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ConnectivityFunc reports whether the machine can reach the internet.
type ConnectivityFunc func(ctx context.Context) bool

// DefaultConnectivity probes online.ConnectivityProbeURLs.
func DefaultConnectivity(ctx context.Context) bool {
	return online.HasInternetConnection(ctx, online.ConnectivityProbeURLs, connectivityTimeout)
}

// EnsureOffline fails when paranoid mode is set and the machine is online.
func EnsureOffline(ctx context.Context, vaultOpts config.VaultOptions, connected ConnectivityFunc) error {
	if !vaultOpts.Paranoid {
		return nil
	}
	log.Info().Msg("Paranoid mode: the vault is only opened without an internet connection")
	if connected(ctx) {
		return fmt.Errorf("%w: paranoid mode refuses to open the vault while connected to the internet, disconnect and retry", failure.ErrConfiguration)
	}
	log.Info().Msg("No internet connection detected")
	return nil
}

// LoadVault reads the vault. password is only asked for encrypted formats.
func LoadVault(vaultOpts config.VaultOptions, password func() (string, error)) ([]vault.Entry, error) {
	f, err := vault.DetectFormat(vaultOpts.Path)
	if err != nil {
		return nil, err
	}

	key := vault.KeePassKey{KeyFile: vault.CleanPath(vaultOpts.KeyFile)}
	if f.NeedsKey() && password != nil {
		pw, err := password()
		if err != nil {
			return nil, err
		}
		key.Password = pw
	}

	log.Info().Str("vault", vaultOpts.Path).Str("format", string(f)).Msg("Reading vault")
	entries, err := vault.Open(vaultOpts.Path, key)
	if err != nil {
		return nil, err
	}
	log.Info().Int("entries", len(entries)).Msg("Read vault")
	return entries, nil
}

// Run performs the selected checks on entries and writes the report. An interrupted
// offline scan still reports its partial matches, the scan error is returned afterwards.
func Run(ctx context.Context, opts Options, entries []vault.Entry) error {
	sink, err := report.NewSink(opts.Vault.Output)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	p := report.NewPresenter(sink, opts.Color)
	p.Begin()

	var errs []error
	if opts.Online != nil {
		runOnline(ctx, opts, entries, p)
	}
	if opts.Offline != nil {
		if err := runOffline(ctx, opts, entries, p); err != nil {
			errs = append(errs, err)
		}
	}
	if opts.Duplicates {
		p.Duplicates(duplicates.Group(entries), entries)
	}
	if opts.Weak {
		p.Weak(weak.Check(entries))
	}

	if err := p.End(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func runOnline(ctx context.Context, opts Options, entries []vault.Entry, p *report.Presenter) {
	client := opts.HTTPClient
	if client == nil {
		client = httpclient.GetHTTPClient(nil, rangeRetries)
	}

	checker := &online.Checker{
		Client:  client,
		BaseURL: opts.Online.APIURL,
		Timeout: opts.Online.Timeout,
		Threads: opts.Online.Threads,
	}
	result, failures := checker.Check(ctx, entries)
	log.Info().Int("breached", len(result)).Int("failed", len(failures)).Msg("Online check done")

	p.Breached(result)
	p.LookupFailures(failures)
}

func runOffline(ctx context.Context, opts Options, entries []vault.Entry, p *report.Presenter) error {
	scanOpts, err := opts.Offline.ScanOptions()
	if err != nil {
		return err
	}

	tracker := offline.NewTracker(nil)
	logging.RegisterStatusHook(func() *zerolog.Event {
		return log.Info().
			Str("scanned", format.HumanBytes(tracker.Done())).
			Str("total", format.HumanBytes(tracker.Total())).
			Int64("chunks", tracker.Chunks())
	})
	defer logging.RegisterStatusHook(nil)

	fileOpts := offline.FileOptions{
		Options: scanOpts,
		NewReporter: func(name string, size int64) offline.Reporter {
			tracker.Expect(size)
			if opts.Offline.Progress && opts.ProgressOut != nil {
				return reporters{tracker, offline.NewBarReporter(name, size, opts.ProgressOut)}
			}
			return tracker
		},
	}

	result, stats, scanErr := offline.ScanFile(ctx, vault.CleanPath(opts.Offline.Corpus), entries, fileOpts)
	log.Info().
		Int64("lines", stats.Lines).
		Int64("chunks", stats.Chunks).
		Int64("skipped", stats.Skipped).
		Str("scanned", format.HumanBytes(stats.Bytes)).
		Int("breached", len(result)).
		Msg("Offline check done")

	if scanErr != nil && stats.Chunks == 0 {
		return scanErr
	}
	if scanErr != nil {
		log.Warn().Err(scanErr).Msg("Corpus scan did not finish, reporting the matches found so far")
	}
	p.Breached(result)
	return scanErr
}

// reporters fans progress out to several reporters.
type reporters []offline.Reporter

func (rs reporters) Add(bytes int64) {
	for _, r := range rs {
		r.Add(bytes)
	}
}

func (rs reporters) Finish() {
	for _, r := range rs {
		r.Finish()
	}
}
