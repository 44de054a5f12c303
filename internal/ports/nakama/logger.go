// Package nakama adapts the core's ports to a Nakama-style backend: a
// realtime socket speaking rtapi envelopes, session-token identity and
// HTTP RPC economy calls.
package nakama

import (
	"fmt"
	"log"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ConsoleLogger implements runtime.Logger on the standard library logger, for
// use outside a Nakama runtime.
type ConsoleLogger struct {
	debug  bool
	fields map[string]interface{}
}

// NewConsoleLogger creates a console logger. debug enables Debug output.
func NewConsoleLogger(debug bool) *ConsoleLogger {
	return &ConsoleLogger{debug: debug}
}

func (l *ConsoleLogger) Debug(format string, v ...interface{}) {
	if l.debug {
		l.write("DEBUG", format, v...)
	}
}

func (l *ConsoleLogger) Info(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

func (l *ConsoleLogger) Warn(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

func (l *ConsoleLogger) Error(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// WithField returns a logger that annotates every line with the field.
func (l *ConsoleLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

// WithFields returns a logger that annotates every line with the fields.
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleLogger{debug: l.debug, fields: merged}
}

// Fields returns the logger's annotation fields.
func (l *ConsoleLogger) Fields() map[string]interface{} {
	return l.fields
}

func (l *ConsoleLogger) write(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if len(l.fields) > 0 {
		log.Printf("%s: %s %v", level, msg, l.fields)
		return
	}
	log.Printf("%s: %s", level, msg)
}
