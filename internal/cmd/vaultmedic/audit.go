package vaultmedic

import (
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/spf13/cobra"
)

type auditFlags struct {
	online     bool
	duplicates bool
	weak       bool
	offline    config.OfflineOptions
	onlineOpts config.OnlineOptions
}

// options selects the checks: the offline scan runs when a corpus is given.
func (f *auditFlags) options() auditor.Options {
	opts := auditor.Options{Duplicates: f.duplicates, Weak: f.weak}
	if f.offline.Corpus != "" {
		opts.Offline = &f.offline
	}
	if f.online {
		opts.Online = &f.onlineOpts
	}
	return opts
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	flags := &auditFlags{
		offline:    config.DefaultOfflineOptions(),
		onlineOpts: config.DefaultOnlineOptions(),
	}

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Run several checks in one report",
		Long:  "Run any combination of the checks on one vault, which is unlocked once. The offline check runs when --corpus is given.",
		Example: `vaultmedic audit -d vault.kdbx -f pwned.7z --duplicates --weak
vaultmedic audit -d export.csv --online --duplicates --yes`,
		Run: func(cmd *cobra.Command, args []string) {
			opts.runAudit(cmd, flags.options())
		},
	}

	auditCmd.Flags().BoolVar(&flags.online, "online", false, "Check passwords against the Pwned Passwords range API")
	auditCmd.Flags().BoolVar(&flags.duplicates, "duplicates", false, "Find passwords used by more than one entry")
	auditCmd.Flags().BoolVar(&flags.weak, "weak", false, "Find passwords that are easy to guess")
	addOfflineFlags(auditCmd, &flags.offline)
	addOnlineFlags(auditCmd, &flags.onlineOpts)

	return auditCmd
}
