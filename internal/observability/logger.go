package observability

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// Logger is the structured logging surface shared by gofulmen loggers and
// plain zap loggers.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

var (
	// CLILogger is used for CLI commands (SIMPLE profile)
	CLILogger Logger = zap.NewNop()

	// ServerLogger is used for HTTP server (STRUCTURED profile)
	ServerLogger Logger = zap.NewNop()
)

// InitCLILogger initializes the CLI logger with SIMPLE profile
func InitCLILogger(serviceName string, verbose bool) Logger {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
	return CLILogger
}

// InitServerLogger initializes the server logger with STRUCTURED profile
// Optional namespace parameter for telemetry integration
func InitServerLogger(serviceName string, logLevel string, namespace ...string) Logger {
	staticFields := make(map[string]any)
	if len(namespace) > 0 && namespace[0] != "" {
		staticFields["namespace"] = namespace[0]
	}

	config := &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: ParseLogLevel(logLevel),
		Service:      serviceName,
		Environment:  "production",
		StaticFields: staticFields,
		Middleware: []logging.MiddlewareConfig{
			{
				Name:    "correlation",
				Enabled: true,
				Order:   100,
				Config:  make(map[string]any),
			},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: "json",
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}

	logger, err := logging.New(config)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}

	ServerLogger = logger
	return ServerLogger
}

// ParseLogLevel converts a configured level name to a gofulmen severity.
// Unknown names fall back to INFO.
func ParseLogLevel(levelStr string) string {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// Sync flushes both loggers. Errors from syncing stderr are ignored.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}

// With returns a logger that adds fields to every entry written through it.
func With(base Logger, fields ...zap.Field) Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if len(fields) == 0 {
		return base
	}
	if fl, ok := base.(*fieldLogger); ok {
		return &fieldLogger{base: fl.base, fields: append(append([]zap.Field{}, fl.fields...), fields...)}
	}
	return &fieldLogger{base: base, fields: fields}
}

type fieldLogger struct {
	base   Logger
	fields []zap.Field
}

func (l *fieldLogger) merge(fields []zap.Field) []zap.Field {
	return append(append(make([]zap.Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
}

func (l *fieldLogger) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, l.merge(fields)...) }
func (l *fieldLogger) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, l.merge(fields)...) }
func (l *fieldLogger) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, l.merge(fields)...) }
func (l *fieldLogger) Error(msg string, fields ...zap.Field) { l.base.Error(msg, l.merge(fields)...) }
func (l *fieldLogger) Sync() error                           { return l.base.Sync() }

type loggerContextKey struct{}

// WithLogger stores a request-scoped logger in ctx.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFrom returns the logger stored in ctx, or ServerLogger.
func LoggerFrom(ctx context.Context) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(Logger); ok && logger != nil {
			return logger
		}
	}
	return ServerLogger
}

// exitWithCodeStderr exits with a semantic exit code, writing to stderr.
// This is a local helper for logger initialization failures before CLI logger is available.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)

	os.Exit(info.Code)
}
