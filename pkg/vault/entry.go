// Package vault holds the credential model shared by every audit and the readers
// that turn vault exports into a flat list of entries.
package vault

import (
	"crypto/sha1" // #nosec G505 - SHA-1 is the fingerprint format of breach corpora, not used for security
	"encoding/hex"
	"strings"
)

// DigestLength is the length of an uppercase hex SHA-1 digest.
const DigestLength = 40

// Entry is one vault record relevant to auditing.
// Digest is computed once by NewEntry and must not be changed afterwards.
type Entry struct {
	Title    string
	URL      string
	Username string
	Password string
	Digest   string
}

// NewEntry builds an entry and computes the digest of its password.
func NewEntry(title, url, username, password string) Entry {
	return Entry{
		Title:    title,
		URL:      url,
		Username: username,
		Password: password,
		Digest:   Digest(password),
	}
}

// Digest returns the uppercase hexadecimal SHA-1 fingerprint of password.
func Digest(password string) string {
	// #nosec G401 - breach corpora are keyed by SHA-1
	sum := sha1.Sum([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// String renders the entry the way reports refer to it. The password is never part of it.
func (e Entry) String() string {
	switch {
	case e.Title != "":
		return e.Username + " on " + e.Title
	case e.URL != "":
		return e.Username + " for " + e.URL
	default:
		return e.Username
	}
}

// keep appends an entry built from the given fields unless the password is empty.
func keep(entries []Entry, title, url, username, password string) []Entry {
	if password == "" {
		return entries
	}
	return append(entries, NewEntry(title, url, username, password))
}
