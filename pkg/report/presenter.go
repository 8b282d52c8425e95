package report

import (
	"fmt"

	"github.com/CompassSecurity/vaultmedic/pkg/audit"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/duplicates"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/online"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/weak"
	"github.com/CompassSecurity/vaultmedic/pkg/format"
	"github.com/CompassSecurity/vaultmedic/pkg/logging"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
)

const (
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Presenter writes audit results to a Sink and emits a hit log event per finding.
// The first write error is kept and returned by End.
type Presenter struct {
	Sink  *Sink
	Color bool
	err   error
}

func NewPresenter(sink *Sink, color bool) *Presenter {
	return &Presenter{Sink: sink, Color: color}
}

func (p *Presenter) println(layout string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = p.Sink.Println(fmt.Sprintf(layout, args...))
}

func (p *Presenter) paint(color, s string) string {
	if !p.Color {
		return s
	}
	return color + s + colorReset
}

func (p *Presenter) Begin() {
	p.println("")
	p.println("================= BEGIN REPORT ==================")
	p.println("")
}

// End closes the report and returns the first error hit while writing it.
func (p *Presenter) End() error {
	p.println("")
	p.println("================== END REPORT ==================")
	return p.err
}

// Breached lists the entries of result. Entries confirmed by several corpus lines are
// listed once per confirmation.
func (p *Presenter) Breached(result audit.MatchResult) {
	if len(result) == 0 {
		p.println("%s", p.paint(colorGreen, "I didn't find any of your passwords on the breached passwords list"))
		return
	}

	p.println("%s", p.paint(colorRed, "The following entries have passwords contained in the list of breached passwords:"))
	for _, b := range result {
		if b.Appearances > 0 {
			p.println("   - %s (seen %s times)", b.Entry, format.Count(b.Appearances))
		} else {
			p.println("   - %s", b.Entry)
		}

		logging.Hit().
			Type(logging.FindingBreached).
			Str("entry", b.Entry.String()).
			Int64("appearances", b.Appearances).
			Msg("Breached password")
	}
}

// Duplicates lists every group of entries sharing a password. entries must be the
// vault the groups were built from and orders the output.
func (p *Presenter) Duplicates(groups duplicates.DigestGroups, entries []vault.Entry) {
	if !groups.HasReuse() {
		p.println("%s", p.paint(colorGreen, "Good job -- no password reuse detected!"))
		return
	}

	for _, group := range groups.ReusedIn(entries) {
		p.println("%s", p.paint(colorYellow, "The following entries have the same password:"))
		p.println("")

		names := make([]string, 0, len(group))
		for _, e := range group {
			p.println("   - %s", e)
			names = append(names, e.String())
		}
		p.println("")

		logging.Hit().
			Type(logging.FindingReused).
			Strs("entries", names).
			Int("count", len(group)).
			Msg("Reused password")
	}

	p.println("%d entries share a password with another entry.", groups.ReusedEntryCount())
	p.println("Password re-use is bad. Change passwords until you have no duplicates.")
}

// Weak lists the weak passwords with zxcvbn's crack time estimate.
func (p *Presenter) Weak(findings []weak.Finding) {
	if len(findings) == 0 {
		p.println("%s", p.paint(colorGreen, "None of your passwords look weak."))
		return
	}

	for _, f := range findings {
		p.println("%s", p.paint(colorYellow, fmt.Sprintf("Your password for %s is weak.", f.Entry)))
		p.println("   score %d/4, could be cracked in %s", f.Score, f.CrackTime)

		logging.Hit().
			Type(logging.FindingWeak).
			Str("entry", f.Entry.String()).
			Int("score", f.Score).
			Str("crackTime", f.CrackTime).
			Msg("Weak password")
	}
}

// LookupFailures lists the entries whose online check did not complete.
func (p *Presenter) LookupFailures(failures []online.LookupFailure) {
	if len(failures) == 0 {
		return
	}

	p.println("")
	p.println("%s", p.paint(colorYellow, "I could not check the following entries online, their result is unknown:"))
	for _, f := range failures {
		p.println("   - %s: %v", f.Entry, f.Err)
	}
}
