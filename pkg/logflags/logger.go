package logflags

import (
	"debug/dwarf"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is what the analysis layers log through. Every Logger returned by
// this package carries a "layer" field naming the layer it belongs to.
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithError(err error) Logger
	// WithUnit tags entries with the compile unit being analyzed.
	WithUnit(name string, off dwarf.Offset) Logger

	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debug(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
}

// LoggerFactory builds the Logger of a layer. fields holds the layer tags
// and out, when not nil, is the destination selected with --log-dest.
type LoggerFactory func(level logrus.Level, fields Fields, out io.Writer) Logger

var loggerFactory LoggerFactory

// SetLoggerFactory replaces the logrus text logger used by default. It must
// be called before the layer loggers are requested.
func SetLoggerFactory(lf LoggerFactory) {
	loggerFactory = lf
}

// Fields are key/value pairs attached to every entry of a Logger.
type Fields map[string]interface{}

type logrusLogger struct {
	*logrus.Entry
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{l.Entry.WithField(key, value)}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{l.Entry.WithError(err)}
}

func (l *logrusLogger) WithUnit(name string, off dwarf.Offset) Logger {
	return &logrusLogger{l.Entry.WithFields(logrus.Fields{"unit": name, "offset": fmt.Sprintf("%#x", off)})}
}
