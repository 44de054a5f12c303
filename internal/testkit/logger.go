// Package testkit holds small helpers shared by the package tests.
package testkit

import (
	"github.com/heroiclabs/nakama-common/runtime"
)

// QuietLogger implements runtime.Logger and discards everything. Tests that
// assert on behavior rather than log output use it to keep `go test` quiet.
type QuietLogger struct{}

// NewQuietLogger returns a logger that drops all output.
func NewQuietLogger() *QuietLogger {
	return &QuietLogger{}
}

func (l *QuietLogger) Debug(format string, v ...interface{}) {}
func (l *QuietLogger) Info(format string, v ...interface{})  {}
func (l *QuietLogger) Warn(format string, v ...interface{})  {}
func (l *QuietLogger) Error(format string, v ...interface{}) {}

func (l *QuietLogger) WithField(key string, v interface{}) runtime.Logger      { return l }
func (l *QuietLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (l *QuietLogger) Fields() map[string]interface{}                          { return nil }
