// Package logging adds the "hit" level used for audit findings and the interactive
// keyboard shortcuts that change the log level while an audit runs.
package logging

import (
	"sync"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ShortcutStatusFN func() *zerolog.Event

var (
	statusHookMutex sync.RWMutex
	statusHook      ShortcutStatusFN
)

// RegisterStatusHook allows commands to register a custom status function.
// Passing nil restores the default.
func RegisterStatusHook(hook ShortcutStatusFN) {
	statusHookMutex.Lock()
	defer statusHookMutex.Unlock()
	statusHook = hook
}

// GetStatusHook returns the registered status hook or a default one
func GetStatusHook() ShortcutStatusFN {
	statusHookMutex.RLock()
	defer statusHookMutex.RUnlock()
	if statusHook != nil {
		return statusHook
	}
	return defaultStatusHook
}

func defaultStatusHook() *zerolog.Event {
	return log.Info().Str("status", "nothing to show")
}

var shortcutLevels = map[string]zerolog.Level{
	"t": zerolog.TraceLevel,
	"d": zerolog.DebugLevel,
	"i": zerolog.InfoLevel,
	"w": zerolog.WarnLevel,
	"e": zerolog.ErrorLevel,
}

// HandleShortcut applies a single key press. It reports whether listening should stop.
func HandleShortcut(key keys.Key) bool {
	switch key.Code {
	case keys.CtrlC, keys.Escape:
		return true
	case keys.RuneKey:
		if level, ok := shortcutLevels[key.String()]; ok {
			zerolog.SetGlobalLevel(level)
			log.Info().Str("logLevel", level.String()).Msg("New Log level")
			return false
		}

		if key.String() == "s" {
			GetStatusHook()().Msg("Status")
		}
	}
	return false
}

// ShortcutListeners blocks reading key presses until Escape or Ctrl+C.
func ShortcutListeners() {
	err := keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		return HandleShortcut(key), nil
	})

	if err != nil {
		log.Error().Err(err).Msg("Failed hooking keyboard bindings")
	}
}
