package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"gopkg.in/yaml.v3"
)

// FileDefaults maps flag names to default values read from a YAML file, e.g.
//
//	chunk-size: 512MB
//	threads: 8
//	corpus: /data/pwned-passwords-sha1-ordered-by-count-v8.txt
//
// Flags given on the command line always win over the file.
type FileDefaults map[string]string

// LoadFile reads the YAML defaults file at path.
func LoadFile(path string) (FileDefaults, error) {
	// #nosec G304 - config path is supplied by the user via --config
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening config file: %w", failure.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	return decodeDefaults(f)
}

func decodeDefaults(r io.Reader) (FileDefaults, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return FileDefaults{}, nil
		}
		return nil, fmt.Errorf("%w: parsing config file: %w", failure.ErrConfiguration, err)
	}

	defaults := make(FileDefaults, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: config key %q must be a scalar value", failure.ErrConfiguration, key)
		case nil:
			continue
		default:
			defaults[key] = fmt.Sprint(v)
		}
	}
	return defaults, nil
}
