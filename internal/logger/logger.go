// Package logger holds the process-wide zap logger. Until Init runs it
// discards everything, so library packages can log unconditionally.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger.
var Log = zap.NewNop()

// Sugar is Log in printf style.
var Sugar = Log.Sugar()

// level is shared by every core so SetLevel applies to console and file.
var level = zap.NewAtomicLevel()

// Options selects the outputs of Setup.
type Options struct {
	Level   string
	Console bool
	File    FileConfig // disabled when Path is empty
}

// FileConfig is a rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns the rotation settings used by Init.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Init logs to stderr and, when logFile is set, to a rotating file.
func Init(lvl, logFile string) error {
	opts := Options{Level: lvl, Console: true}
	if logFile != "" {
		opts.File = DefaultFileConfig(logFile)
	}
	return Setup(opts)
}

// Setup replaces the global logger.
func Setup(opts Options) error {
	if err := SetLevel(opts.Level); err != nil {
		return err
	}

	var cores []zapcore.Core
	if opts.Console {
		enc := encoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level))
	}
	if f := opts.File; f.Path != "" {
		w := &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), level))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	Sugar = Log.Sugar()
	return nil
}

// SetLevel changes the minimum level of every output. An empty string
// means info.
func SetLevel(lvl string) error {
	if lvl == "" {
		lvl = "info"
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	level.SetLevel(l)
	return nil
}

// Level returns the current minimum level.
func Level() zapcore.Level { return level.Level() }

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// Named returns a child logger for a subsystem. The caller skip of the
// package helpers is undone so callers are reported correctly.
func Named(name string) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// Sync flushes buffered entries.
func Sync() { _ = Log.Sync() }

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }

// Fatal logs at fatal level and exits the process.
func Fatal(msg string, fields ...zap.Field) { Log.Fatal(msg, fields...) }
