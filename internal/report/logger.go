package report

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level enumerates supported logging granularities.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format enumerates supported log encodings.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

var levelMapping = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

// LevelFor returns the level selected by the --debug switch.
func LevelFor(debug bool) Level {
	if debug {
		return LevelDebug
	}
	return LevelInfo
}

// FormatFor returns the format selected by the --json switch.
func FormatFor(json bool) Format {
	if json {
		return FormatJSON
	}
	return FormatConsole
}

// NewLogger builds the run logger. Findings are the tool's output, so records
// go to stdout and sampling is disabled: every finding must reach the sink.
func NewLogger(level Level, format Format) (*zap.Logger, error) {
	zapLevel, ok := levelMapping[level]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}
	if format != FormatJSON && format != FormatConsole {
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLevel)
	configuration.Encoding = string(format)
	configuration.Sampling = nil
	configuration.DisableStacktrace = true
	configuration.OutputPaths = []string{"stdout"}
	configuration.ErrorOutputPaths = []string{"stderr"}
	if format == FormatConsole {
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		configuration.EncoderConfig.TimeKey = "timestamp"
		configuration.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}

	return configuration.Build()
}
