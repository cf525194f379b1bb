package smd

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var (
	loggerMu      sync.RWMutex
	defaultLogger = NewLogger(os.Stderr, "logfmt", "info")
)

// NewLogger returns a go-kit logger writing to w in the provided format ("logfmt" or "json"),
// filtered at the provided level ("debug", "info", "warn", "error" or "none").
func NewLogger(w io.Writer, format, lvl string) log.Logger {
	var logger log.Logger
	sw := log.NewSyncWriter(w)
	if strings.ToLower(format) == "json" {
		logger = log.NewJSONLogger(sw)
	} else {
		logger = log.NewLogfmtLogger(sw)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, levelOption(lvl))
}

func levelOption(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

// Logger returns the package wide logger.
func Logger() log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the package wide logger. A nil logger silences everything.
func SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	loggerMu.Lock()
	defaultLogger = l
	loggerMu.Unlock()
}

// Degraded logs a numeric degradation warning: the computation proceeds with the best
// available result.
func Degraded(logger log.Logger, subsys, msg string, keyvals ...interface{}) {
	kv := append([]interface{}{"subsys", subsys, "degradation", msg}, keyvals...)
	level.Warn(logger).Log(kv...)
}
