// Package logging собирает корневой zerolog-логгер приложения.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New создаёт логгер с уровнем level ("debug", "info", "warn", "error").
// format "json" пишет JSON, остальные значения — читаемый консольный вывод.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter создаёт логгер, пишущий в w.
func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	out := w
	if strings.ToLower(format) != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

var levels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"off":      zerolog.Disabled,
	"disabled": zerolog.Disabled,
}

// ParseLevel переводит строку в уровень zerolog; неизвестное значение — info.
func ParseLevel(level string) zerolog.Level {
	if l, ok := levels[normalize(level)]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// KnownLevel сообщает, понимает ли ParseLevel строку level.
func KnownLevel(level string) bool {
	_, ok := levels[normalize(level)]
	return ok
}

func normalize(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}
