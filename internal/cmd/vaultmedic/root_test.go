package vaultmedic

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/auditor"
	"github.com/CompassSecurity/vaultmedic/pkg/config"
	"github.com/CompassSecurity/vaultmedic/pkg/vault"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVault = `"Group","Title","Username","Password","URL","Notes"
"Root","Mail","alice","hunter2","https://mail.example",""
"Root","Forum","bob","hunter2","",""
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testOptions(t *testing.T, stdin string) *rootOptions {
	t.Helper()
	return &rootOptions{
		vault:     config.VaultOptions{Path: writeFile(t, "vault.csv", testVault), Output: filepath.Join(t.TempDir(), "report.txt")},
		stdin:     strings.NewReader(stdin),
		stderr:    &bytes.Buffer{},
		password:  func() (string, error) { return "", errors.New("no password expected") },
		connected: func(context.Context) bool { return false },
	}
}

func readReport(t *testing.T, o *rootOptions) string {
	t.Helper()
	data, err := os.ReadFile(o.vault.Output)
	require.NoError(t, err)
	return string(data)
}

func TestExecuteDuplicates(t *testing.T) {
	o := testOptions(t, "")
	require.NoError(t, o.execute(context.Background(), auditor.Options{Duplicates: true}))

	report := readReport(t, o)
	assert.Contains(t, report, "The following entries have the same password:")
	assert.Contains(t, report, "alice on Mail")
	assert.Contains(t, report, "bob on Forum")
}

func TestExecuteOffline(t *testing.T) {
	o := testOptions(t, "")
	offlineOpts := config.DefaultOfflineOptions()
	offlineOpts.Corpus = writeFile(t, "corpus.txt", vault.Digest("hunter2")+":17\n")
	offlineOpts.Progress = false

	require.NoError(t, o.execute(context.Background(), auditor.Options{Offline: &offlineOpts}))
	assert.Contains(t, readReport(t, o), "   - alice on Mail (seen 17 times)")
}

func TestExecuteNoCheck(t *testing.T) {
	o := testOptions(t, "")
	err := o.execute(context.Background(), auditor.Options{})
	assert.ErrorIs(t, err, failure.ErrConfiguration)
	assert.NoFileExists(t, o.vault.Output)
}

func TestExecuteParanoidOnline(t *testing.T) {
	o := testOptions(t, "")
	o.vault.Paranoid = true
	o.connected = func(context.Context) bool { return true }

	err := o.execute(context.Background(), auditor.Options{Weak: true})
	assert.ErrorIs(t, err, failure.ErrConfiguration)
	assert.NoFileExists(t, o.vault.Output)
}

func TestExecuteOnlineConsentDenied(t *testing.T) {
	o := testOptions(t, "no\n")
	onlineOpts := config.DefaultOnlineOptions()

	err := o.execute(context.Background(), auditor.Options{Online: &onlineOpts})
	assert.ErrorIs(t, err, failure.ErrConfiguration)
	assert.Contains(t, o.stderr.(*bytes.Buffer).String(), "Type allow")
}

func TestAskConsent(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "allow\n", want: true},
		{input: "  ALLOW \r\n", want: true},
		{input: "allow", want: true},
		{input: "yes\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, askConsent(strings.NewReader(tt.input), &bytes.Buffer{}))
		})
	}
}

func TestPromptPassword(t *testing.T) {
	originalRead, originalIsTerminal := readPassword, isTerminal
	defer func() { readPassword, isTerminal = originalRead, originalIsTerminal }()

	t.Run("environment", func(t *testing.T) {
		t.Setenv(PasswordEnv, "s3cret")
		pw, err := promptPassword(&bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "s3cret", pw)
	})

	t.Run("terminal", func(t *testing.T) {
		isTerminal = func(int) bool { return true }
		readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }

		var out bytes.Buffer
		pw, err := promptPassword(&out)
		require.NoError(t, err)
		assert.Equal(t, "typed", pw)
		assert.Contains(t, out.String(), "Enter the password of your vault")
	})

	t.Run("no terminal", func(t *testing.T) {
		isTerminal = func(int) bool { return false }
		_, err := promptPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, failure.ErrConfiguration)
	})

	t.Run("read error", func(t *testing.T) {
		isTerminal = func(int) bool { return true }
		readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
		_, err := promptPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, failure.ErrIO)
	})
}

func findCmd(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	return cmd
}

func TestApplyConfigFile(t *testing.T) {
	cfg := writeFile(t, "vaultmedic.yaml", "chunk-size: 1MB\ncorpus: /data/from-config.txt\nthreads: 9\nparanoid: true\n")

	o := newRootOptions()
	root := newRootCmd(o)
	offlineCmd := findCmd(t, root, "offline")
	require.NoError(t, offlineCmd.ParseFlags([]string{"--corpus", "/data/from-flag.txt"}))

	require.NoError(t, applyConfigFile(offlineCmd, cfg))

	corpus, err := offlineCmd.Flags().GetString("corpus")
	require.NoError(t, err)
	assert.Equal(t, "/data/from-flag.txt", corpus, "flags on the command line win")

	chunkSize, err := offlineCmd.Flags().GetString("chunk-size")
	require.NoError(t, err)
	assert.Equal(t, "1MB", chunkSize)

	assert.True(t, o.vault.Paranoid, "persistent flags are set from the file too")
}

func TestApplyConfigFileInvalidValue(t *testing.T) {
	cfg := writeFile(t, "vaultmedic.yaml", "threads: many\n")

	root := newRootCmd(newRootOptions())
	onlineCmd := findCmd(t, root, "online")
	require.NoError(t, onlineCmd.ParseFlags(nil))

	assert.ErrorIs(t, applyConfigFile(onlineCmd, cfg), failure.ErrConfiguration)
}

func TestApplyConfigFileNone(t *testing.T) {
	root := newRootCmd(newRootOptions())
	assert.NoError(t, applyConfigFile(root, ""))
}

func TestAuditFlagsOptions(t *testing.T) {
	f := &auditFlags{offline: config.DefaultOfflineOptions(), onlineOpts: config.DefaultOnlineOptions()}
	opts := f.options()
	assert.Nil(t, opts.Offline)
	assert.Nil(t, opts.Online)
	assert.False(t, opts.Duplicates)

	f.offline.Corpus = "corpus.txt"
	f.online = true
	f.weak = true
	opts = f.options()
	require.NotNil(t, opts.Offline)
	assert.Equal(t, "corpus.txt", opts.Offline.Corpus)
	assert.NotNil(t, opts.Online)
	assert.True(t, opts.Weak)
}

func TestCommandTree(t *testing.T) {
	root := NewVaultmedicRootCmd()
	for _, name := range []string{"offline", "online", "duplicates", "weak", "audit"} {
		cmd := findCmd(t, root, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, flag := range []string{"vault", "keyfile", "output", "paranoid", "config", "json", "log-level", "ignore-proxy"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootExecuteWeak(t *testing.T) {
	o := testOptions(t, "")
	root := newRootCmd(o)
	root.SetArgs([]string{"weak", "--vault", o.vault.Path, "--output", o.vault.Output, "--log-level", "error"})
	require.NoError(t, root.Execute())

	assert.Contains(t, readReport(t, o), "Your password for alice on Mail is weak.")
}
