// Package audit contains the result types produced by the breach checks.
package audit

import "github.com/CompassSecurity/vaultmedic/pkg/vault"

// Breach is one confirmation that an entry's credential is publicly known.
// Appearances is the occurrence count reported by the source, 0 when the source has none.
type Breach struct {
	Entry       vault.Entry
	Appearances int64
}

// MatchResult is the ordered list of breaches found by one check. The same entry may
// appear more than once when independent corpus lines confirm it.
type MatchResult []Breach

// Entries projects the result to the breached entries, keeping order and duplicates.
func (m MatchResult) Entries() []vault.Entry {
	entries := make([]vault.Entry, 0, len(m))
	for _, b := range m {
		entries = append(entries, b.Entry)
	}
	return entries
}
