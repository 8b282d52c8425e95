package logging

import (
	"bytes"
	"testing"

	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) keys.Key {
	return keys.Key{Code: keys.RuneKey, Runes: []rune{r}}
}

func TestHandleShortcutLevels(t *testing.T) {
	_ = captureHits(t)
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	tests := []struct {
		key      rune
		expected zerolog.Level
	}{
		{key: 't', expected: zerolog.TraceLevel},
		{key: 'd', expected: zerolog.DebugLevel},
		{key: 'i', expected: zerolog.InfoLevel},
		{key: 'w', expected: zerolog.WarnLevel},
		{key: 'e', expected: zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			stop := HandleShortcut(runeKey(tt.key))
			assert.False(t, stop)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestHandleShortcutStop(t *testing.T) {
	assert.True(t, HandleShortcut(keys.Key{Code: keys.Escape}))
	assert.True(t, HandleShortcut(keys.Key{Code: keys.CtrlC}))
	assert.False(t, HandleShortcut(runeKey('x')))
}

func TestStatusHook(t *testing.T) {
	defer RegisterStatusHook(nil)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	called := false
	RegisterStatusHook(func() *zerolog.Event {
		called = true
		return logger.Info().Int64("chunks", 3)
	})

	HandleShortcut(runeKey('s'))
	assert.True(t, called)
	assert.Contains(t, buf.String(), `"chunks":3`)
	assert.Contains(t, buf.String(), "Status")
}

func TestDefaultStatusHook(t *testing.T) {
	RegisterStatusHook(nil)
	assert.NotNil(t, GetStatusHook())
}
