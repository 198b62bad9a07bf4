package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// Logger writes one JSON line per entry. Data, when given, is attached
// under the "data" key.
type Logger struct {
	zl zerolog.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(os.Stdout)
}

func NewLogger(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Init configures the process-wide logger, including the one used by the
// engine through zerolog's global log package.
func Init(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(level))

	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	defaultLogger = NewLogger(w)
	log.Logger = defaultLogger.zl
}

func parseLevel(level string) zerolog.Level {
	if os.Getenv("DEBUG") == "true" {
		return zerolog.DebugLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func (l *Logger) log(level Level, msg string, data []interface{}) {
	var ev *zerolog.Event
	switch level {
	case DEBUG:
		ev = l.zl.Debug()
	case WARN:
		ev = l.zl.Warn()
	case ERROR:
		ev = l.zl.Error()
	default:
		ev = l.zl.Info()
	}
	if len(data) > 0 && data[0] != nil {
		if err, ok := data[0].(error); ok {
			ev = ev.Err(err)
		} else {
			ev = ev.Interface("data", data[0])
		}
	}
	ev.Msg(msg)
}

func (l *Logger) Info(msg string, data ...interface{}) {
	l.log(INFO, msg, data)
}

func (l *Logger) Warn(msg string, data ...interface{}) {
	l.log(WARN, msg, data)
}

func (l *Logger) Error(msg string, data ...interface{}) {
	l.log(ERROR, msg, data)
}

func (l *Logger) Debug(msg string, data ...interface{}) {
	l.log(DEBUG, msg, data)
}

// Global logger functions
func Info(msg string, data ...interface{}) {
	defaultLogger.Info(msg, data...)
}

func Warn(msg string, data ...interface{}) {
	defaultLogger.Warn(msg, data...)
}

func Error(msg string, data ...interface{}) {
	defaultLogger.Error(msg, data...)
}

func Debug(msg string, data ...interface{}) {
	defaultLogger.Debug(msg, data...)
}
