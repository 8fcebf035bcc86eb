package logger

import (
	"io"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes leveled, timestamped lines to a terminal.
type ConsoleLogger struct {
	l *log.Logger
}

// NewConsoleLogger creates a console logger writing to w. Debug lines are
// printed only when debug is true.
func NewConsoleLogger(w io.Writer, debug bool) *ConsoleLogger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return &ConsoleLogger{
		l: log.NewWithOptions(w, log.Options{
			Level:           level,
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02 15:04:05",
		}),
	}
}

func (c *ConsoleLogger) Debug(format string, args ...interface{}) {
	c.l.Debugf(format, args...)
}

func (c *ConsoleLogger) Info(format string, args ...interface{}) {
	c.l.Infof(format, args...)
}

func (c *ConsoleLogger) Warning(format string, args ...interface{}) {
	c.l.Warnf(format, args...)
}

func (c *ConsoleLogger) Error(format string, args ...interface{}) {
	c.l.Errorf(format, args...)
}

func (c *ConsoleLogger) Close() error {
	return nil
}

var _ Logger = (*ConsoleLogger)(nil)
