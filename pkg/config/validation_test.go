package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
	"github.com/CompassSecurity/vaultmedic/pkg/audit/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		fieldName string
		wantError bool
		errMsg    string
	}{
		{
			name:      "valid https url",
			url:       "https://api.pwnedpasswords.com",
			fieldName: "API URL",
			wantError: false,
		},
		{
			name:      "valid http url",
			url:       "http://localhost:8080",
			fieldName: "API URL",
			wantError: false,
		},
		{
			name:      "empty url",
			url:       "",
			fieldName: "API URL",
			wantError: true,
			errMsg:    "cannot be empty",
		},
		{
			name:      "no scheme",
			url:       "api.pwnedpasswords.com",
			fieldName: "API URL",
			wantError: true,
			errMsg:    "must include a scheme",
		},
		{
			name:      "invalid url",
			url:       "ht!tp://invalid",
			fieldName: "URL",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, tt.fieldName)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, failure.ErrConfiguration))
				if tt.errMsg != "" {
					assert.True(t, strings.Contains(err.Error(), tt.errMsg), err.Error())
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseChunkSize(t *testing.T) {
	tests := []struct {
		name      string
		sizeStr   string
		want      int64
		wantError bool
	}{
		{name: "megabytes are binary", sizeStr: "256MB", want: offline.DefaultChunkSize},
		{name: "explicit binary unit", sizeStr: "256MiB", want: offline.DefaultChunkSize},
		{name: "gigabytes", sizeStr: "1GB", want: 1024 * 1024 * 1024},
		{name: "kilobytes", sizeStr: "64k", want: 64 * 1024},
		{name: "plain bytes", sizeStr: "4096", want: 4096},
		{name: "zero", sizeStr: "0", wantError: true},
		{name: "garbage", sizeStr: "lots", wantError: true},
		{name: "empty", sizeStr: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChunkSize(tt.sizeStr)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, failure.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateThreadCount(t *testing.T) {
	tests := []struct {
		name      string
		threads   int
		wantError bool
	}{
		{name: "valid thread count", threads: 4},
		{name: "max threads", threads: 100},
		{name: "min threads", threads: 1},
		{name: "zero threads", threads: 0, wantError: true},
		{name: "negative threads", threads: -1, wantError: true},
		{name: "too many threads", threads: 101, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadCount(tt.threads)
			if tt.wantError {
				assert.ErrorIs(t, err, failure.ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	assert.NoError(t, ValidateTimeout(time.Second))
	assert.ErrorIs(t, ValidateTimeout(0), failure.ErrConfiguration)
	assert.ErrorIs(t, ValidateTimeout(-time.Second), failure.ErrConfiguration)
}

func TestDefaults(t *testing.T) {
	off := DefaultOfflineOptions()
	opts, err := off.ScanOptions()
	require.NoError(t, err)
	assert.Equal(t, offline.DefaultChunkSize, opts.ChunkSize)
	assert.Equal(t, offline.DigestMode, opts.Mode)
	assert.True(t, off.Progress)

	off.ClearText = true
	opts, err = off.ScanOptions()
	require.NoError(t, err)
	assert.Equal(t, offline.ClearTextMode, opts.Mode)

	on := DefaultOnlineOptions()
	assert.NoError(t, on.Validate())

	on.Threads = 0
	assert.ErrorIs(t, on.Validate(), failure.ErrConfiguration)
}
