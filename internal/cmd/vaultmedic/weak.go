package vaultmedic

import (
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/spf13/cobra"
)

func newWeakCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "weak",
		Short:   "Find passwords that are easy to guess",
		Long:    "Estimate the strength of every password with zxcvbn. Passwords scoring below 4 of 4 are reported.",
		Example: "vaultmedic weak -d export.json",
		Run: func(cmd *cobra.Command, args []string) {
			opts.runAudit(cmd, auditor.Options{Weak: true})
		},
	}
}
