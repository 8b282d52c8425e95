package vaultmedic

import (
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func addOfflineFlags(cmd *cobra.Command, o *config.OfflineOptions) {
	cmd.Flags().StringVarP(&o.Corpus, "corpus", "f", "", "Breach corpus: one SHA-1 (optionally :count) or cleartext password per line, archives are extracted")
	cmd.Flags().BoolVar(&o.ClearText, "cleartext", false, "Corpus lines are cleartext passwords instead of SHA-1 digests")
	cmd.Flags().StringVar(&o.ChunkSize, "chunk-size", o.ChunkSize, "Corpus bytes buffered before they are compared, bounds memory use (binary units)")
	cmd.Flags().BoolVar(&o.Progress, "progress", o.Progress, "Show a progress bar while scanning the corpus")
}

func newOfflineCmd(opts *rootOptions) *cobra.Command {
	offlineOpts := config.DefaultOfflineOptions()

	offlineCmd := &cobra.Command{
		Use:   "offline",
		Short: "Check passwords against a breach corpus on disk",
		Long: `Check every password of the vault against a breached passwords list on disk. The list is streamed in chunks so
corpora far larger than memory, like the Have I Been Pwned SHA-1 download, can be used. Nothing leaves the machine.`,
		Example: "vaultmedic offline -d vault.kdbx -f pwned-passwords-sha1-ordered-by-count-v8.txt --chunk-size 512MB",
		Run: func(cmd *cobra.Command, args []string) {
			opts.runAudit(cmd, auditor.Options{Offline: &offlineOpts})
		},
	}

	addOfflineFlags(offlineCmd, &offlineOpts)
	if err := offlineCmd.MarkFlagRequired("corpus"); err != nil {
		log.Fatal().Stack().Err(err).Msg("Unable to require corpus flag")
	}

	return offlineCmd
}
