package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/docker/go-units"
)

// ValidateURL validates that a string is a valid URL.
func ValidateURL(urlStr string, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%w: %s cannot be empty", failure.ErrConfiguration, fieldName)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: invalid %s: %w", failure.ErrConfiguration, fieldName, err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("%w: %s must include a scheme (http/https)", failure.ErrConfiguration, fieldName)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: %s must include a host", failure.ErrConfiguration, fieldName)
	}

	return nil
}

// ParseChunkSize parses a human-readable size string (e.g., "256MB", "1GiB") into bytes.
// Units are binary, so "256MB" equals the default chunk size.
func ParseChunkSize(sizeStr string) (int64, error) {
	size, err := units.RAMInBytes(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse chunk size: %w", failure.ErrConfiguration, err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: chunk size must be positive, got %q", failure.ErrConfiguration, sizeStr)
	}
	return size, nil
}

// ValidateThreadCount validates that the thread count is within acceptable bounds.
func ValidateThreadCount(threads int) error {
	if threads < 1 {
		return fmt.Errorf("%w: thread count must be at least 1, got %d", failure.ErrConfiguration, threads)
	}
	if threads > 100 {
		return fmt.Errorf("%w: thread count too high (max 100), got %d", failure.ErrConfiguration, threads)
	}
	return nil
}

// ValidateTimeout validates that a lookup timeout is positive.
func ValidateTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", failure.ErrConfiguration, timeout)
	}
	return nil
}
