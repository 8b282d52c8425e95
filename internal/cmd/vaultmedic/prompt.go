package vaultmedic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"golang.org/x/term"
)

// PasswordEnv holds the vault password for non-interactive runs.
const PasswordEnv = "VAULTMEDIC_VAULT_PASSWORD"

var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

// promptPassword reads the vault password from PasswordEnv or, without echo, from the terminal.
func promptPassword(out io.Writer) (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnv); ok {
		return pw, nil
	}

	fd := stdinFd()
	if !isTerminal(fd) {
		return "", fmt.Errorf("%w: no terminal to ask for the vault password, set %s", failure.ErrConfiguration, PasswordEnv)
	}

	_, _ = fmt.Fprint(out, "Enter the password of your vault: ")
	pw, err := readPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("%w: reading vault password: %w", failure.ErrIO, err)
	}
	return string(pw), nil
}

// askConsent explains what leaves the machine during the online check and waits for "allow".
func askConsent(in io.Reader, out io.Writer) bool {
	_, _ = fmt.Fprintln(out, "Heads up! The first 5 characters of the SHA-1 hashes of your passwords will be sent to the Pwned Passwords API.")
	_, _ = fmt.Fprint(out, "Type allow to allow this: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "allow")
}
