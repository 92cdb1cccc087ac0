package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// InitLogger configures the global logger. Output always goes to stdout; when
// file is set it is additionally written to a size-rotated log file.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var out io.Writer = os.Stdout
	if file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		}
		out = zerolog.MultiLevelWriter(os.Stdout, rotator)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	l := zerolog.New(out).With().Timestamp().Str("service", "pdf-service").Logger()

	mu.Lock()
	logger = l.Level(parseLevel(level))
	mu.Unlock()
}

// SetLogLevel changes the level of the global logger. Unknown levels fall back to info.
func SetLogLevel(level string) {
	mu.Lock()
	logger = logger.Level(parseLevel(level))
	mu.Unlock()
}

// SetLoggerForTest replaces the global logger.
func SetLoggerForTest(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs msg with key/value pairs at debug level.
func Debug(msg string, kv ...any) {
	l := current()
	write(l.Debug(), msg, kv)
}

// Info logs msg with key/value pairs at info level.
func Info(msg string, kv ...any) {
	l := current()
	write(l.Info(), msg, kv)
}

// Warn logs msg with key/value pairs at warn level.
func Warn(msg string, kv ...any) {
	l := current()
	write(l.Warn(), msg, kv)
}

// Error logs msg with key/value pairs at error level.
func Error(msg string, kv ...any) {
	l := current()
	write(l.Error(), msg, kv)
}

func write(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			e = e.Interface("extra", kv[i])
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
