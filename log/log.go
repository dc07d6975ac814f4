// Package log writes structured diagnostics to a daily file through logrus.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/filesystem"
	"github.com/streamgrab/streamgrab/key"
	"github.com/streamgrab/streamgrab/where"
)

var (
	logger  = logrus.New()
	enabled bool
)

// Setup opens the daily log file and applies the configured format and level.
// When logs.write is off every emission is discarded.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	f, err := open(where.Logs(), time.Now())
	if err != nil {
		return err
	}

	configure(f, viper.GetBool(key.LogsJson), viper.GetString(key.LogsLevel))
	return nil
}

// open appends to the log file of day inside dir.
func open(dir string, day time.Time) (afero.File, error) {
	path := filepath.Join(dir, day.Format("2006-01-02")+".log")

	f, err := filesystem.API().OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func configure(out afero.File, asJSON bool, level string) {
	logger.SetOutput(out)

	if asJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}

// Fields is a set of structured values attached to an entry.
type Fields = logrus.Fields

// Entry carries structured fields until it is emitted.
type Entry struct {
	fields Fields
}

func WithFields(fields Fields) Entry {
	return Entry{fields: fields}
}

func (e Entry) Info(args ...any)  { e.emit(logrus.InfoLevel, args) }
func (e Entry) Warn(args ...any)  { e.emit(logrus.WarnLevel, args) }
func (e Entry) Debug(args ...any) { e.emit(logrus.DebugLevel, args) }

func (e Entry) emit(level logrus.Level, args []any) {
	if enabled {
		logger.WithFields(e.fields).Log(level, args...)
	}
}

var plain Entry

func Error(args ...any) { plain.emit(logrus.ErrorLevel, args) }
func Warn(args ...any)  { plain.emit(logrus.WarnLevel, args) }
func Info(args ...any)  { plain.emit(logrus.InfoLevel, args) }
func Debug(args ...any) { plain.emit(logrus.DebugLevel, args) }

func Errorf(format string, args ...any) { plain.emit(logrus.ErrorLevel, []any{fmt.Sprintf(format, args...)}) }
func Warnf(format string, args ...any)  { plain.emit(logrus.WarnLevel, []any{fmt.Sprintf(format, args...)}) }
func Infof(format string, args ...any)  { plain.emit(logrus.InfoLevel, []any{fmt.Sprintf(format, args...)}) }
func Debugf(format string, args ...any) { plain.emit(logrus.DebugLevel, []any{fmt.Sprintf(format, args...)}) }
