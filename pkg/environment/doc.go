// Package environment carries the deployment environment name through contexts,
// HTTP requests and log records. Middleware tags every request context and
// LoggerExtractor adds the value to slog records.
package environment
