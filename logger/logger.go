// Package logger configures logrus loggers from command line settings.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/src-d/go-errors.v1"
)

var ErrUnknownFormat = errors.NewKind("unknown logger format: %q")

// levelAliases maps the level names of the analysis scripts to logrus levels.
var levelAliases = map[string]logrus.Level{
	"NOTSET":   logrus.TraceLevel,
	"DEBUG":    logrus.DebugLevel,
	"INFO":     logrus.InfoLevel,
	"WARNING":  logrus.WarnLevel,
	"ERROR":    logrus.ErrorLevel,
	"CRITICAL": logrus.FatalLevel,
}

// ParseLevel accepts logrus level names and NOTSET, DEBUG, INFO, WARNING, ERROR, CRITICAL.
func ParseLevel(s string) (logrus.Level, error) {
	if l, ok := levelAliases[strings.ToUpper(s)]; ok {
		return l, nil
	}
	return logrus.ParseLevel(s)
}

// LoggerFactory is a helper for configuring logrus.Logger's
type LoggerFactory struct {
	Level  string
	Format string
	// Fields are added to every entry.
	Fields map[string]string
	// File, when set, receives a copy of everything logged.
	File string
}

// New returns a new logger writing to stderr.
func (c LoggerFactory) New() (*logrus.Logger, io.Closer, error) {
	l := logrus.New()
	closer, err := c.Apply(l)
	if err != nil {
		return nil, nil, err
	}
	return l, closer, nil
}

// Apply configures an existing logger, typically logrus.StandardLogger(). The returned closer
// releases the log file. Applying again replaces the log file and the fields set by the previous
// call.
func (c LoggerFactory) Apply(l *logrus.Logger) (io.Closer, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := c.formatter()
	if err != nil {
		return nil, err
	}

	out := l.Out
	if fw, ok := out.(*fileWriter); ok {
		out = fw.base
	}
	closer := io.Closer(nopCloser{})
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = &fileWriter{Writer: io.MultiWriter(out, f), base: out}
		closer = f
	}

	hooks := make(logrus.LevelHooks)
	for level, hs := range l.Hooks {
		for _, h := range hs {
			if _, ok := h.(fieldsHook); !ok {
				hooks[level] = append(hooks[level], h)
			}
		}
	}
	if len(c.Fields) != 0 {
		hooks.Add(fieldsHook(c.Fields))
	}

	l.Out = out
	l.Level = level
	l.Formatter = formatter
	l.ReplaceHooks(hooks)
	return closer, nil
}

// fileWriter copies what is written to base into a log file.
type fileWriter struct {
	io.Writer
	base io.Writer
}

func (c LoggerFactory) formatter() (logrus.Formatter, error) {
	switch c.Format {
	case "text", "":
		f := new(prefixed.TextFormatter)
		// escape codes would end up in the log file
		f.ForceColors = c.File == ""
		f.FullTimestamp = true
		return f, nil
	case "json":
		return new(logrus.JSONFormatter), nil
	}
	return nil, ErrUnknownFormat.New(c.Format)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fieldsHook sets fixed fields on every entry that does not have them yet.
type fieldsHook map[string]string

func (fieldsHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h fieldsHook) Fire(e *logrus.Entry) error {
	for k, v := range h {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}
