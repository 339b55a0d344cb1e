package database

import (
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/signbank/signbank/core"
)

// gooseLogger writes the goose output to the application logger.
type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// migrationLogger discards the goose output when logger is nil.
func migrationLogger(logger core.Logger) goose.Logger {
	if logger == nil {
		return goose.NopLogger()
	}
	return gooseLogger{logger: logger}
}
