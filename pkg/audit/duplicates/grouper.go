// Package duplicates detects password reuse by grouping entries on their digest.
package duplicates

import (
	"sort"

	"github.com/CompassSecurity/vaultmedic/pkg/vault"
)

// DigestGroups maps a password digest to the entries sharing it, in vault order.
type DigestGroups map[string][]vault.Entry

// Group builds the digest groups of entries. Every entry lands in exactly one group.
func Group(entries []vault.Entry) DigestGroups {
	groups := make(DigestGroups, len(entries))
	for _, entry := range entries {
		groups[entry.Digest] = append(groups[entry.Digest], entry)
	}
	return groups
}

// Reused returns the groups with more than one member, ordered by digest.
// Order inside a group is vault order.
func (g DigestGroups) Reused() [][]vault.Entry {
	return g.reused(nil)
}

// ReusedIn is like Reused but orders groups by first appearance in entries,
// which must be the collection the groups were built from.
func (g DigestGroups) ReusedIn(entries []vault.Entry) [][]vault.Entry {
	return g.reused(entries)
}

func (g DigestGroups) reused(entries []vault.Entry) [][]vault.Entry {
	var digests []string
	if entries != nil {
		seen := make(map[string]bool, len(g))
		for _, e := range entries {
			if !seen[e.Digest] && len(g[e.Digest]) > 1 {
				digests = append(digests, e.Digest)
			}
			seen[e.Digest] = true
		}
	} else {
		for digest, members := range g {
			if len(members) > 1 {
				digests = append(digests, digest)
			}
		}
		sort.Strings(digests)
	}

	reused := make([][]vault.Entry, 0, len(digests))
	for _, digest := range digests {
		reused = append(reused, g[digest])
	}
	return reused
}

// HasReuse reports whether any password is shared by more than one entry.
func (g DigestGroups) HasReuse() bool {
	for _, members := range g {
		if len(members) > 1 {
			return true
		}
	}
	return false
}

// ReusedEntryCount is the number of entries whose password is shared with another entry.
func (g DigestGroups) ReusedEntryCount() int {
	count := 0
	for _, members := range g {
		if len(members) > 1 {
			count += len(members)
		}
	}
	return count
}
