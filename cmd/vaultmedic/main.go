package main

import (
	"github.com/CompassSecurity/vaultmedic/internal/cmd/common"
	"github.com/CompassSecurity/vaultmedic/internal/cmd/vaultmedic"
	"github.com/spf13/cobra"
)

func main() {
	common.Run(newRootCmd())
}

func newRootCmd() *cobra.Command {
	rootCmd := vaultmedic.NewVaultmedicRootCmd()
	rootCmd.Version = common.Version

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	return rootCmd
}
