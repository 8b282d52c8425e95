package vault

import (
	"fmt"
	"io"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/rs/zerolog/log"
	"github.com/tobischo/gokeepasslib/v3"
)

// KeePassKey is the key material needed to unlock a KDBX database.
type KeePassKey struct {
	Password string
	KeyFile  string
}

func (k KeePassKey) credentials() (*gokeepasslib.DBCredentials, error) {
	switch {
	case k.KeyFile != "" && k.Password != "":
		return gokeepasslib.NewPasswordAndKeyCredentials(k.Password, k.KeyFile)
	case k.KeyFile != "":
		return gokeepasslib.NewKeyCredentials(k.KeyFile)
	default:
		return gokeepasslib.NewPasswordCredentials(k.Password), nil
	}
}

// ReadKeePass unlocks a KDBX 3.1 or 4 database and flattens all groups into entries.
// The database is only held in memory for the duration of the call.
func ReadKeePass(r io.Reader, key KeePassKey) ([]Entry, error) {
	creds, err := key.credentials()
	if err != nil {
		return nil, fmt.Errorf("%w: opening keyfile: %w", failure.ErrIO, err)
	}

	db := gokeepasslib.NewDatabase()
	db.Credentials = creds
	if err := gokeepasslib.NewDecoder(r).Decode(db); err != nil {
		return nil, fmt.Errorf("%w: unlocking keepass database, wrong password or key file: %w", failure.ErrConfiguration, err)
	}
	if err := db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("%w: unlocking protected entries: %w", failure.ErrParse, err)
	}

	var entries []Entry
	for _, group := range db.Content.Root.Groups {
		entries = walkGroup(entries, group)
	}
	return entries, nil
}

func walkGroup(entries []Entry, group gokeepasslib.Group) []Entry {
	for _, e := range group.Entries {
		password := e.GetPassword()
		if password == "" {
			log.Debug().Str("title", e.GetTitle()).Msg("Skipping keepass entry without password")
			continue
		}
		entries = keep(entries, e.GetTitle(), e.GetContent("URL"), e.GetContent("UserName"), password)
	}
	for _, sub := range group.Groups {
		entries = walkGroup(entries, sub)
	}
	return entries
}
