// Package logger holds the process-wide structured logger. Output goes to a
// rotating file under the config dir and, for the daemon or --debug, stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/soberlit/internal/constants"
)

// Logger is nil until Init; every helper tolerates that.
var Logger *log.Logger

type Config struct {
	ConfigDir string
	// Level is a charmbracelet/log level name; empty means info
	Level string
	// Debug forces debug level with caller reporting and stderr output
	Debug bool
	// Console mirrors output to stderr
	Console bool
}

func (c Config) level() (log.Level, error) {
	if c.Debug {
		return log.DebugLevel, nil
	}
	if c.Level == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return level, nil
}

// Path is the active log file for a config dir.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.LogDirName, constants.AppName+".log")
}

// Init replaces the global logger. An invalid level still installs an
// info-level logger and returns the parse error.
func Init(cfg Config) error {
	path := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var writer io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}
	if cfg.Debug || cfg.Console {
		writer = io.MultiWriter(os.Stderr, writer)
	}

	level, err := cfg.level()
	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return err
}

// With returns a child logger carrying keyvals, or a discarding logger before Init.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
