package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	PlatformTimeout        time.Duration `env:"PLATFORM_TIMEOUT,default=10s"`
	DebounceWindow         time.Duration `env:"DEBOUNCE_WINDOW,default=10s"`
	RenameTimeout          time.Duration `env:"RENAME_TIMEOUT,default=1m"`
	MoveDelay              time.Duration `env:"MOVE_DELAY,default=500ms"`
	SweepInterval          time.Duration `env:"SWEEP_INTERVAL,default=5m"`
	RenameLockMaxAge       time.Duration `env:"RENAME_LOCK_MAX_AGE,default=1h"`
	CompletedLockRetention time.Duration `env:"COMPLETED_LOCK_RETENTION,default=30m"`
	ActivityRetention      time.Duration `env:"ACTIVITY_RETENTION,default=2h"`
	ActivitySweepInterval  time.Duration `env:"ACTIVITY_SWEEP_INTERVAL,default=30m"`

	CensorReplacement string `env:"CENSOR_REPLACEMENT,default=*"`
}

// Logger builds the process logger from a LOG_LEVEL string, defaulting to
// info on anything unrecognized.
func Logger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

// CensorRune validates that the configured replacement is one character.
func CensorRune(str string) (rune, bool) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, false
	}
	return r[0], true
}
