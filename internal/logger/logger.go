// Package logger wraps zerolog behind the small interface the rest of the
// viewer uses. Every event carries a component field so log output can be
// filtered per subsystem (detect, loader, display, overlay, viewer).
package logger

type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// NopLogger discards everything. Used by tests and the headless subcommands
// when no log file is configured.
type NopLogger struct{}

func (NopLogger) Debug(component, message string, fields map[string]interface{})   {}
func (NopLogger) Info(component, message string, fields map[string]interface{})    {}
func (NopLogger) Warning(component, message string, fields map[string]interface{}) {}
func (NopLogger) Error(component string, err error, fields map[string]interface{}) {}
