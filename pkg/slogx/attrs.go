package slogx

import (
	"fmt"
	"log/slog"
)

// KeyLoggerName is the attribute key naming the component that emitted a record.
const KeyLoggerName = "logger"

// Error returns an "error" attribute carrying the error's message.
// A nil error yields an empty string value so callers can log unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates an attribute from the string form of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName returns an attribute for the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// RequestID returns the attribute used to correlate log lines of one chat request.
func RequestID(id fmt.Stringer) slog.Attr {
	return slog.String("request_id", id.String())
}
