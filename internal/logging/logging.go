// Package logging configures colored structured logging with tint.
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/simonvc/moneymanager/internal/ledger"
)

// Setup configures colored logging at the level specified by LOG_LEVEL env var
// (default: INFO).
func Setup() {
	SetupWithLevel(LevelFromString(os.Getenv("LOG_LEVEL")))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(New(os.Stderr, level))
}

// New returns a tint logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
		NoColor:    !isTerminal(w),
	}))
}

func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// Reporter logs the errors the ledger reports to the user. Storage failures
// are logged at error level; everything else is the user's to fix and logs
// at warn.
type Reporter struct {
	Logger *slog.Logger
}

var _ ledger.Reporter = Reporter{}

func (r Reporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l := r.Logger
	if l == nil {
		l = slog.Default()
	}
	kind := ledger.KindOf(err)
	level := slog.LevelWarn
	if kind == nil || errors.Is(kind, ledger.ErrStorage) {
		level = slog.LevelError
	}
	attrs := []any{tint.Err(err)}
	if kind != nil {
		attrs = append(attrs, "kind", kind.Error())
	}
	l.Log(ctx, level, "ledger error", attrs...)
}
