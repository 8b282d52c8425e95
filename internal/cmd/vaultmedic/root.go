// Package vaultmedic wires the audit commands into the vaultmedic cobra tree.
package vaultmedic

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/CompassSecurity/vaultmedic/internal/cmd/common"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions hold the flags shared by every audit command.
type rootOptions struct {
	vault      config.VaultOptions
	configFile string

	// prompts and probes, replaced in tests
	stdin     io.Reader
	stderr    io.Writer
	password  func() (string, error)
	connected auditor.ConnectivityFunc
}

func newRootOptions() *rootOptions {
	o := &rootOptions{
		stdin:     os.Stdin,
		stderr:    os.Stderr,
		connected: auditor.DefaultConnectivity,
	}
	o.password = func() (string, error) { return promptPassword(o.stderr) }
	return o
}

// NewVaultmedicRootCmd builds the command tree.
func NewVaultmedicRootCmd() *cobra.Command {
	return newRootCmd(newRootOptions())
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vaultmedic",
		Short: "Audit password vaults for breached, reused and weak passwords",
		Long: `Vaultmedic reads a KeePass database, a KeePass CSV export or a Bitwarden JSON export and checks every password
against a local breach corpus (such as the Have I Been Pwned SHA-1 download), the Pwned Passwords range API,
the other passwords of the vault and a strength estimator.`,
		Example: `vaultmedic offline -d vault.kdbx -f pwned-passwords-sha1-ordered-by-count-v8.txt
vaultmedic online -d export.csv --threads 8
vaultmedic audit -d vault.kdbx -f pwned.7z --duplicates --weak --paranoid -o report.txt`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.vault.Path, "vault", "d", "", "Vault to audit (.kdbx, .csv KeePass export or .json Bitwarden export)")
	flags.StringVarP(&opts.vault.KeyFile, "keyfile", "k", "", "KeePass key file")
	flags.StringVarP(&opts.vault.Output, "output", "o", "", "Append the report to this file instead of printing it")
	flags.BoolVar(&opts.vault.Paranoid, "paranoid", false, "Only open the vault when no internet connection is available")
	flags.StringVar(&opts.configFile, "config", "", "YAML file with flag defaults, flags given on the command line win")

	rootCmd.AddCommand(newOfflineCmd(opts))
	rootCmd.AddCommand(newOnlineCmd(opts))
	rootCmd.AddCommand(newDuplicatesCmd(opts))
	rootCmd.AddCommand(newWeakCmd(opts))
	rootCmd.AddCommand(newAuditCmd(opts))

	common.SetupPersistentPreRun(rootCmd, func(c *cobra.Command) error {
		return applyConfigFile(c, opts.configFile)
	})
	common.AddCommonFlags(rootCmd)

	return rootCmd
}

// execute runs one audit: validation, paranoid check, consent, vault unlock and the checks.
func (o *rootOptions) execute(ctx context.Context, audit auditor.Options) error {
	audit.Vault = o.vault
	audit.Color = common.LogColor
	if audit.Offline != nil && audit.Offline.Progress {
		audit.ProgressOut = o.stderr
	}

	if err := auditor.Validate(audit); err != nil {
		return err
	}
	if err := auditor.EnsureOffline(ctx, o.vault, o.connected); err != nil {
		return err
	}
	if audit.Online != nil && !audit.Online.Yes {
		if !askConsent(o.stdin, o.stderr) {
			return fmt.Errorf("%w: the online check was not allowed", failure.ErrConfiguration)
		}
	}

	entries, err := auditor.LoadVault(o.vault, o.password)
	if err != nil {
		return err
	}
	common.StartShortcutListeners()

	return auditor.Run(ctx, audit, entries)
}

// runAudit is the Run of every audit command, failures end the process like in the
// rest of the command tree.
func (o *rootOptions) runAudit(cmd *cobra.Command, audit auditor.Options) {
	if err := o.execute(cmd.Context(), audit); err != nil {
		log.Fatal().Err(err).Msg("Audit failed")
	}
	log.Info().Msg("Done")
}
