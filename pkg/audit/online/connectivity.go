package online

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

// ConnectivityProbeURLs are contacted to find out whether the machine is online.
var ConnectivityProbeURLs = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	DefaultBaseURL,
}

// HasInternetConnection reports whether any of urls answers at all. The status code
// does not matter, only that a response arrived.
func HasInternetConnection(ctx context.Context, urls []string, timeout time.Duration) bool {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	defer func() { _ = client.Close() }()

	for _, u := range urls {
		res, err := client.R().SetContext(ctx).Head(u)
		if err != nil {
			log.Debug().Err(err).Str("url", u).Msg("Connectivity probe failed")
			continue
		}
		log.Debug().Str("url", u).Int("status", res.StatusCode()).Msg("Connectivity probe answered")
		return true
	}
	return false
}
