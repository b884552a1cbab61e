package blitz

import (
	"fmt"
	"log/slog"
	"strings"
)

// slogLogger sends resty's retry and error chatter through the default slog
// handler instead of resty's own stderr logger.
type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error(restyMessage(format, v), "component", "resty")
}

func (slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(restyMessage(format, v), "component", "resty")
}

func (slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(restyMessage(format, v), "component", "resty")
}

func restyMessage(format string, v []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
