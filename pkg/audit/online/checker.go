// Package online checks vault passwords against a k-anonymity range API such as
// Have I Been Pwned. Only the first five characters of a password digest leave the
// machine.
package online

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CompassSecurity/vaultmedic/pkg/audit"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"github.com/wandb/parallel"
)

const (
	// DefaultBaseURL is the public Pwned Passwords API.
	DefaultBaseURL = "https://api.pwnedpasswords.com"
	DefaultTimeout = 10 * time.Second
	DefaultThreads = 4

	prefixLength = 5
	suffixLength = vault.DigestLength - prefixLength
)

// Checker looks up entries against the range API.
type Checker struct {
	Client  *retryablehttp.Client
	BaseURL string
	// Timeout bounds each single lookup including retries.
	Timeout time.Duration
	Threads int
}

// LookupFailure records an entry whose exposure could not be determined.
type LookupFailure struct {
	Entry vault.Entry
	Err   error
}

func (c *Checker) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// Appearances returns how often password appears in the breach data, 0 when it does not.
func (c *Checker) Appearances(ctx context.Context, password string) (int64, error) {
	digest := vault.Digest(password)
	prefix, suffix := digest[:prefixLength], digest[prefixLength:]

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL() + "/range/" + prefix
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: building range request: %w", failure.ErrNetwork, err)
	}
	// padded responses hide the real number of suffixes per prefix
	req.Header.Set("Add-Padding", "true")

	res, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: range request for prefix %s: %w", failure.ErrNetwork, prefix, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: range request for prefix %s returned HTTP %d", failure.ErrNetwork, prefix, res.StatusCode)
	}

	count, err := ParseRange(res.Body, suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: reading range response for prefix %s: %w", failure.ErrNetwork, prefix, err)
	}
	return count, nil
}

// ParseRange finds suffix in a range response of SUFFIX:COUNT lines.
// A matching line with an unreadable count still counts as one appearance.
func ParseRange(body io.Reader, suffix string) (int64, error) {
	suffix = strings.ToUpper(suffix)
	scanner := bufio.NewScanner(body)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		candidate, countStr, found := strings.Cut(line, ":")
		if !found || len(candidate) != suffixLength {
			log.Debug().Err(failure.ErrParse).Int("line", lineNo).Msg("Skipping malformed range response line")
			continue
		}
		if !strings.EqualFold(candidate, suffix) {
			continue
		}

		count, err := strconv.ParseInt(countStr, 10, 64)
		if err != nil || count < 0 {
			log.Debug().Err(failure.ErrParse).Int("line", lineNo).Msg("Unreadable count for matching suffix, assuming one appearance")
			return 1, nil
		}
		return count, nil
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, nil
}

type lookup struct {
	appearances int64
	err         error
}

// Check looks up every entry and returns the breached ones in vault order.
// Entries sharing a password are looked up once. Failed lookups are returned
// separately and never abort the remaining entries.
func (c *Checker) Check(ctx context.Context, entries []vault.Entry) (audit.MatchResult, []LookupFailure) {
	threads := c.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}

	// one lookup per distinct digest, keyed by first occurrence
	slot := make(map[string]int, len(entries))
	var unique []vault.Entry
	for _, e := range entries {
		if _, ok := slot[e.Digest]; !ok {
			slot[e.Digest] = len(unique)
			unique = append(unique, e)
		}
	}

	log.Info().Int("entries", len(entries)).Int("lookups", len(unique)).Int("threads", threads).Msg("Checking passwords against the range API")

	lookups := make([]lookup, len(unique))
	for i := range lookups {
		// tasks are skipped once ctx is cancelled
		lookups[i].err = fmt.Errorf("%w: lookup did not run", failure.ErrNetwork)
	}
	group := parallel.Limited(ctx, threads)
	for i, e := range unique {
		group.Go(func(ctx context.Context) {
			n, err := c.Appearances(ctx, e.Password)
			lookups[i] = lookup{appearances: n, err: err}
			if err != nil {
				log.Debug().Err(err).Str("entry", e.String()).Msg("Range lookup failed")
			}
		})
	}
	group.Wait()

	var result audit.MatchResult
	var failures []LookupFailure
	for _, e := range entries {
		l := lookups[slot[e.Digest]]
		switch {
		case l.err != nil:
			failures = append(failures, LookupFailure{Entry: e, Err: l.err})
		case l.appearances > 0:
			result = append(result, audit.Breach{Entry: e, Appearances: l.appearances})
		}
	}

	return result, failures
}
