package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Init()

	Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Debugf(template string, args ...any)

	Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Infof(template string, args ...any)

	Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Warnf(template string, args ...any)

	Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Errorf(template string, args ...any)

	Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Fatalf(template string, args ...any)

	Sync() error
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
	Logger   string
	AppName  string
}

func NewLogger(cfg *LoggerConfig) Logger {
	var l Logger
	switch cfg.Logger {
	case "zap", "":
		l = newZapLogger(cfg, output(cfg))
	case "zerolog":
		l = newZeroLogger(cfg, output(cfg))
	default:
		panic("logger not supported: supported loggers: [zap, zerolog]")
	}

	l.Init()
	return l
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	l := newZapLogger(&LoggerConfig{Level: "fatal", Encoding: "json"}, io.Discard)
	l.Init()
	return l
}

// output writes to stdout, and to a rotating file when a path is configured.
func output(cfg *LoggerConfig) io.Writer {
	if cfg.FilePath == "" {
		return os.Stdout
	}

	name := cfg.AppName
	if name == "" {
		name = "gateway"
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.FilePath, name+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	return io.MultiWriter(os.Stdout, rotator)
}
