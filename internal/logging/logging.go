// Package logging holds the logger shared by the codec packages.
package logging

import (
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var current atomic.Value

func init() {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	current.Store(holder{l})
}

// holder keeps atomic.Value storing one concrete type.
type holder struct {
	logrus.FieldLogger
}

// Logger returns the current logger.
func Logger() logrus.FieldLogger {
	return current.Load().(holder).FieldLogger
}

// SetLogger replaces the logger. A nil logger discards all output.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		discard := logrus.New()
		discard.SetOutput(nopWriter{})
		discard.SetLevel(logrus.PanicLevel)
		l = discard
	}
	current.Store(holder{l})
}

// With returns the current logger tagged with the component name.
func With(component string) logrus.FieldLogger {
	return Logger().WithField("component", component)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
