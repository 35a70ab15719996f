// Package logger provides structured logging for feedback-go.
//
// This package wraps the standard library log/slog:
//
//   - logger.go: Logger interface, configuration and handler setup
//   - context.go: Context-aware logging with operation IDs
//
// Features:
//
//   - JSON and text output formats
//   - Dynamic log level adjustment at runtime
//   - Context propagation for operation tracing
package logger
