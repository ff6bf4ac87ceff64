package logger

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// Init initializes the logger with default settings
func Init() {
	Initialize("info")
}

// Initialize sets up the global logger with Charm's log library
func Initialize(logLevel string) {
	Logger = log.New(os.Stderr)

	level := strings.ToLower(logLevel)
	switch level {
	case "debug":
		Logger.SetLevel(log.DebugLevel)
	case "info":
		Logger.SetLevel(log.InfoLevel)
	case "warn", "warning":
		Logger.SetLevel(log.WarnLevel)
	case "error":
		Logger.SetLevel(log.ErrorLevel)
	case "fatal":
		Logger.SetLevel(log.FatalLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}

	Logger.SetReportCaller(true)
	Logger.SetReportTimestamp(true)

	Logger.Debug("Logger initialized", "level", level)
}

// Get returns the global logger instance
func Get() *log.Logger {
	if Logger == nil {
		Initialize("info")
	}
	return Logger
}

// WithContext creates a new logger with additional context fields
func WithContext(fields ...any) *log.Logger {
	return Get().With(fields...)
}

// Service creates a logger for a specific service
func Service(serviceName string) *log.Logger {
	return WithContext("service", serviceName)
}

// Database creates a logger for database operations
func Database() *log.Logger {
	return WithContext("component", "database")
}

// HTTP creates a logger for HTTP operations
func HTTP() *log.Logger {
	return WithContext("component", "http")
}

// Migration creates a logger for migration operations
func Migration() *log.Logger {
	return WithContext("component", "migration")
}

// Store creates a logger for the in-memory state store
func Store() *log.Logger {
	return WithContext("component", "store")
}

// Sync creates a logger for the debounced save scheduler
func Sync() *log.Logger {
	return WithContext("component", "sync")
}

// Session creates a logger for login and role resolution
func Session() *log.Logger {
	return WithContext("component", "session")
}

// Lifecycle creates a logger for election status transitions
func Lifecycle() *log.Logger {
	return WithContext("component", "lifecycle")
}

// Backup creates a logger for export and import
func Backup() *log.Logger {
	return WithContext("component", "backup")
}

// Audit is the debug channel Super Admin actions are mirrored to
func Audit() *log.Logger {
	return WithContext("component", "audit")
}

// Gateway creates a logger for a persistence backend
func Gateway(backend string) *log.Logger {
	return WithContext("component", "gateway", "backend", backend)
}

// Handler creates a logger for HTTP handlers
func Handler(handlerName string) *log.Logger {
	return WithContext("component", "handler", "handler", handlerName)
}
