package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/fitjournal/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxSizeMB = 50

// Options configure the process wide logrus logger.
type Options struct {
	// Service, Environment and Version are attached to every entry
	Service     string
	Environment string
	Version     string

	Level string
	JSON  bool
	// FilePath is where rotated log files go; empty logs to stdout only
	FilePath string
	// Stdout also writes to stdout when logging to a file
	Stdout   bool
	Rotation Rotation

	SentryEnabled bool
	SentryDSN     string
}

// Rotation of the log file. Zero MaxBackups and MaxAgeDays keep rotated
// files forever.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard logrus logger. A failing sentry init is
// returned, the logger is still usable.
func Setup(opts Options) error {
	logrus.SetLevel(ParseLevel(opts.Level))
	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.AddHook(newServiceFieldsHook(opts))

	out, target := opts.output()
	logrus.SetOutput(out)
	logrus.Debugf("logging to %s", target)

	if !opts.SentryEnabled {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.SentryDSN,
		Environment:      opts.Environment,
		Release:          opts.Version,
		ServerName:       opts.Service,
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	logrus.AddHook(NewSentryHook(opts.Service, []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Debugln("sentry hook added")
	return nil
}

func (opts Options) output() (io.Writer, string) {
	if opts.FilePath == "" {
		return os.Stdout, "stdout"
	}

	path := opts.FilePath
	if filepath.Ext(path) != ".log" {
		path += ".log"
	}
	maxSize := opts.Rotation.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: opts.Rotation.MaxBackups,
		MaxAge:     opts.Rotation.MaxAgeDays,
		Compress:   true,
	}

	if opts.Stdout {
		return pkg.NewCombinedWriter(os.Stdout, file), path + " and stdout"
	}
	return file, path
}

// ParseLevel falls back to info for unknown levels.
func ParseLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

type serviceFieldsHook struct {
	fields logrus.Fields
}

func newServiceFieldsHook(opts Options) *serviceFieldsHook {
	fields := logrus.Fields{}
	if opts.Service != "" {
		fields["service"] = opts.Service
	}
	if opts.Environment != "" {
		fields["env"] = opts.Environment
	}
	if opts.Version != "" {
		fields["version"] = opts.Version
	}
	return &serviceFieldsHook{fields: fields}
}

func (h *serviceFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire keeps fields already set on the entry.
func (h *serviceFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
