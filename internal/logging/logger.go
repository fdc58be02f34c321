package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "BANKCONNECT_LOG_LEVEL"

// Options controls where and how much the logger writes
type Options struct {
	// Level is the minimum level; empty falls back to BANKCONNECT_LOG_LEVEL
	Level string

	// OutputPath is a file path or "stdout"/"stderr". The TUI passes a file
	// so log lines never land on the alternate screen.
	OutputPath string

	// JSON selects the JSON encoder instead of the console encoder
	JSON bool
}

// Initialize creates a new logger writing to stdout at the given level.
// If level is empty, it checks BANKCONNECT_LOG_LEVEL.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithOptions(Options{Level: level})
}

// InitializeFromEnv initializes the logger from BANKCONNECT_LOG_LEVEL
func InitializeFromEnv() error {
	return Initialize("")
}

// InitializeWithOptions creates a new logger from opts
func InitializeWithOptions(opts Options) error {
	level := opts.Level
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	output := opts.OutputPath
	if output == "" {
		output = "stdout"
	}

	encoding := "console"
	if opts.JSON {
		encoding = "json"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if isTerminalPath(output) && !opts.JSON {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	return nil
}

// ParseLevel maps a level name to a zap level; unknown names mean info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func isTerminalPath(path string) bool {
	return path == "stdout" || path == "stderr"
}

// SetLogger replaces the global logger (used by tests with zaptest/observer)
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogConnectAttempt logs the start of a connection attempt
func LogConnectAttempt(baseURL string, nickname string) {
	Info("Connect attempt",
		zap.String("node", baseURL),
		zap.String("nickname", nickname),
	)
}

// LogConnectResult logs the outcome of a connection attempt.
// message is the user-facing failure text, empty on success.
func LogConnectResult(baseURL string, message string, err error) {
	switch {
	case err != nil:
		Error("Connect attempt failed unexpectedly",
			zap.String("node", baseURL),
			zap.Error(err),
		)
	case message != "":
		Warn("Connect attempt rejected",
			zap.String("node", baseURL),
			zap.String("reason", message),
		)
	default:
		Info("Connect attempt succeeded", zap.String("node", baseURL))
	}
}

// LogNavigation logs a route change
func LogNavigation(from, to string) {
	Debug("Navigation",
		zap.String("from", from),
		zap.String("to", to),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
