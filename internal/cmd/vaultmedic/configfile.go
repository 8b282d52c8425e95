package vaultmedic

import (
	"fmt"
	"sort"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// applyConfigFile sets every flag of cmd that was not given on the command line from
// the YAML defaults file. Keys of other commands are ignored.
func applyConfigFile(cmd *cobra.Command, path string) error {
	if path == "" {
		return nil
	}

	defaults, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			log.Debug().Str("key", name).Str("command", cmd.Name()).Msg("Config key is not a flag of this command, ignoring")
			continue
		}
		if flag.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, defaults[name]); err != nil {
			return fmt.Errorf("%w: config key %q: %w", failure.ErrConfiguration, name, err)
		}
		log.Trace().Str("flag", name).Msg("Flag set from config file")
	}
	return nil
}
