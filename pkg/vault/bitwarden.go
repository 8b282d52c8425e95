package vault

import (
	"fmt"
	"io"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/tidwall/gjson"
)

// ReadBitwardenJSON reads an unencrypted Bitwarden JSON export.
// Only login items carry credentials, everything else is ignored.
func ReadBitwardenJSON(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading json export: %w", failure.ErrIO, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: bitwarden export is not valid json", failure.ErrParse)
	}

	doc := gjson.ParseBytes(data)
	if doc.Get("encrypted").Bool() {
		return nil, fmt.Errorf("%w: encrypted bitwarden exports are not supported", failure.ErrConfiguration)
	}

	var entries []Entry
	doc.Get("items").ForEach(func(_, item gjson.Result) bool {
		login := item.Get("login")
		if !login.Exists() {
			return true
		}
		entries = keep(entries,
			item.Get("name").String(),
			login.Get("uris.0.uri").String(),
			login.Get("username").String(),
			login.Get("password").String(),
		)
		return true
	})

	return entries, nil
}
