package vaultmedic

import (
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/spf13/cobra"
)

func addOnlineFlags(cmd *cobra.Command, o *config.OnlineOptions) {
	cmd.Flags().StringVar(&o.APIURL, "api-url", o.APIURL, "Base URL of the Pwned Passwords range API")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", o.Timeout, "Timeout of a single range lookup including retries")
	cmd.Flags().IntVar(&o.Threads, "threads", o.Threads, "Number of concurrent range lookups (1-100)")
	cmd.Flags().BoolVar(&o.Yes, "yes", false, "Do not ask before sending hash prefixes to the API")
}

func newOnlineCmd(opts *rootOptions) *cobra.Command {
	onlineOpts := config.DefaultOnlineOptions()

	onlineCmd := &cobra.Command{
		Use:   "online",
		Short: "Check passwords against the Pwned Passwords range API",
		Long: `Check every password of the vault against the Pwned Passwords API. Only the first 5 characters of each
SHA-1 digest are sent, the API answers with all known suffixes of that prefix and the match happens locally.`,
		Example: "vaultmedic online -d export.csv --threads 8",
		Run: func(cmd *cobra.Command, args []string) {
			opts.runAudit(cmd, auditor.Options{Online: &onlineOpts})
		},
	}

	addOnlineFlags(onlineCmd, &onlineOpts)
	return onlineCmd
}
