package logging

import (
	"fmt"
	"io"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/rs/zerolog"
)

const (
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// ZeroLogger implements the CometBFT logger on top of zerolog.
type ZeroLogger struct {
	Zerolog zerolog.Logger
	Trace   bool
}

var _ cmtlog.Logger = (*ZeroLogger)(nil)

// NewLogger builds the node logger. level is a zerolog level name; per-module
// filtering is layered on top by the caller.
func NewLogger(w io.Writer, format, level string, trace bool) (cmtlog.Logger, error) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	switch format {
	case FormatPlain, "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
	zl := zerolog.New(w).Level(logLevel).With().Timestamp().Logger()
	return &ZeroLogger{Zerolog: zl, Trace: trace}, nil
}

func (l *ZeroLogger) Info(msg string, keyVals ...interface{}) {
	l.Zerolog.Info().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, keyVals ...interface{}) {
	e := l.Zerolog.Error()
	if l.Trace {
		e = e.Stack()
	}
	e.Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) Debug(msg string, keyVals ...interface{}) {
	l.Zerolog.Debug().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) With(keyVals ...interface{}) cmtlog.Logger {
	return &ZeroLogger{
		Zerolog: l.Zerolog.With().Fields(getLogFields(keyVals...)).Logger(),
		Trace:   l.Trace,
	}
}

func getLogFields(keyVals ...interface{}) map[string]interface{} {
	if len(keyVals)%2 != 0 {
		keyVals = append(keyVals, "(MISSING)")
	}

	fields := make(map[string]interface{}, len(keyVals)/2)
	for i := 0; i < len(keyVals); i += 2 {
		v := keyVals[i+1]
		if s, ok := v.(fmt.Stringer); ok {
			v = s.String()
		}
		fields[fmt.Sprint(keyVals[i])] = v
	}

	return fields
}
