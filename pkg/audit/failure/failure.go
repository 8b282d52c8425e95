// Package failure defines the error taxonomy shared by the audit components.
// Operations wrap one of the sentinels below together with the cause, callers
// classify with errors.Is.
package failure

import "errors"

var (
	// ErrIO marks a file that cannot be opened or read. Fatal for the operation in progress.
	ErrIO = errors.New("io failure")
	// ErrParse marks a malformed corpus or response line. Recovered locally and logged.
	ErrParse = errors.New("parse failure")
	// ErrNetwork marks a transport failure or a non-success response of the range API.
	ErrNetwork = errors.New("network failure")
	// ErrConfiguration marks an invalid audit request, reported before any scan starts.
	ErrConfiguration = errors.New("configuration failure")
)
