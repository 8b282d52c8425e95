// Package weak flags vault passwords that are easy to guess, whether or not they
// were ever breached.
package weak

import (
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/nbutton23/zxcvbn-go"
	"github.com/rs/zerolog/log"
)

// MinScore is the lowest zxcvbn score (0-4) that is not reported.
const MinScore = 4

// Finding is a weak password together with its estimated strength.
type Finding struct {
	Entry vault.Entry
	Score int
	// CrackTime is zxcvbn's human readable offline crack time estimate.
	CrackTime string
}

// Check scores every entry and returns the weak ones in vault order.
// Title and username are passed as user inputs so passwords derived from them score lower.
func Check(entries []vault.Entry) []Finding {
	var findings []Finding
	for _, e := range entries {
		inputs := make([]string, 0, 2)
		for _, in := range []string{e.Title, e.Username} {
			if in != "" {
				inputs = append(inputs, in)
			}
		}

		strength := zxcvbn.PasswordStrength(e.Password, inputs)
		if strength.Score < MinScore {
			findings = append(findings, Finding{Entry: e, Score: strength.Score, CrackTime: strength.CrackTimeDisplay})
		}
	}

	log.Debug().Int("entries", len(entries)).Int("weak", len(findings)).Msg("Scored password strength")
	return findings
}
