package vaultmedic

import (
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/spf13/cobra"
)

func newDuplicatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "duplicates",
		Short:   "Find passwords used by more than one entry",
		Example: "vaultmedic duplicates -d vault.kdbx --paranoid",
		Run: func(cmd *cobra.Command, args []string) {
			opts.runAudit(cmd, auditor.Options{Duplicates: true})
		},
	}
}
