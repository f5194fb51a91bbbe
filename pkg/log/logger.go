// Package log is the logging sink used by the patcher libraries. The default
// sink forwards to apex/log so the CLI controls handlers and levels in one
// place; tests swap in their own Logger to capture diagnostics.
package log

import (
	apex "github.com/apex/log"
)

// Logger is the sink capability handed to library code. Everything in the
// core reports through this interface rather than ambient global state.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger is used by the package-level helpers and by components that
// were not handed an explicit sink.
var DefaultLogger Logger = apexWrapper{}

type apexWrapper struct{}

func (apexWrapper) Debugf(format string, args ...interface{}) {
	apex.Debugf(format, args...)
}

func (apexWrapper) Infof(format string, args ...interface{}) {
	apex.Infof(format, args...)
}

func (apexWrapper) Warnf(format string, args ...interface{}) {
	apex.Warnf(format, args...)
}

func (apexWrapper) Errorf(format string, args ...interface{}) {
	apex.Errorf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}
