package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls how the logger is built.
type Options struct {
	Level string // debug, info, warn, error, fatal, disabled
	File  string // when set, JSON log lines are appended to this file too
}

// Logger is the logging surface engine components depend on.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	// GetZerolog exposes the underlying zerolog instance for advanced usage.
	GetZerolog() *zerolog.Logger
}

type zerologLogger struct {
	logger *zerolog.Logger
	fields map[string]interface{}
}

// New creates a Logger writing colored console output, plus a JSON file
// when Options.File is set.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{
		Out:              os.Stderr,
		TimeFormat:       "15:04:05",
		FormatLevel:      formatLevel,
		FormatFieldName:  func(i interface{}) string { return fmt.Sprintf("\033[36m%s\033[0m:", i) },
		FormatFieldValue: func(i interface{}) string { return fmt.Sprintf("%s", i) },
	}

	var output io.Writer = console
	if opts.File != "" {
		file, err := openLogFile(opts.File)
		if err != nil {
			return nil, err
		}
		output = zerolog.MultiLevelWriter(console, file)
	}

	zlog := zerolog.New(output).With().
		Timestamp().
		Str("app", "igextract").
		Logger()

	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}, nil
}

func formatLevel(i interface{}) string {
	if i == nil {
		return ""
	}
	switch strings.ToUpper(fmt.Sprintf("%s", i)) {
	case "DEBUG":
		return "\033[37mDEBG\033[0m"
	case "INFO":
		return "\033[32mINFO\033[0m"
	case "WARN":
		return "\033[33mWARN\033[0m"
	case "ERROR":
		return "\033[31mERRO\033[0m"
	case "FATAL":
		return "\033[35mFATL\033[0m"
	default:
		return strings.ToUpper(fmt.Sprintf("%s", i))
	}
}

func openLogFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func (l *zerologLogger) Debug(msg string) { l.addFields(l.logger.Debug()).Msg(msg) }
func (l *zerologLogger) Info(msg string)  { l.addFields(l.logger.Info()).Msg(msg) }
func (l *zerologLogger) Warn(msg string)  { l.addFields(l.logger.Warn()).Msg(msg) }
func (l *zerologLogger) Error(msg string) { l.addFields(l.logger.Error()).Msg(msg) }

// Fatal logs the message and exits the process.
func (l *zerologLogger) Fatal(msg string) { l.addFields(l.logger.Fatal()).Msg(msg) }

// WithField returns a derived logger carrying one extra field.
func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger carrying the extra fields.
func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &zerologLogger{logger: l.logger, fields: merged}
}

// WithError returns a derived logger carrying the error as a field.
func (l *zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *zerologLogger) GetZerolog() *zerolog.Logger {
	return l.logger
}

func (l *zerologLogger) addFields(event *zerolog.Event) *zerolog.Event {
	for key, value := range l.fields {
		event = addFieldToEvent(event, key, value)
	}
	return event
}

// addFieldToEvent keeps zerolog's typed field encoders in play instead of
// falling through to reflection for common types.
func addFieldToEvent(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Time:
		return event.Time(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case error:
		return event.Err(v)
	case []string:
		return event.Strs(key, v)
	default:
		return event.Interface(key, v)
	}
}

var globalLogger Logger

// Initialize sets up the global logger used by components that are not
// handed one explicitly.
func Initialize(opts Options) error {
	lg, err := New(opts)
	if err != nil {
		return err
	}
	globalLogger = lg
	log.Logger = *lg.GetZerolog()
	return nil
}

// GetLogger returns the global logger, building an info-level default when
// Initialize was never called.
func GetLogger() Logger {
	if globalLogger == nil {
		globalLogger, _ = New(Options{Level: "info"})
	}
	return globalLogger
}
