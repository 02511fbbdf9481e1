package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const LoggerKey contextKey = "logger"

type Logger struct {
	*zerolog.Logger
}

// New creates a new logger instance with service context
func New(service string) *Logger {
	hostname, _ := os.Hostname()

	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "@timestamp" // ELK compatible

	// Create logger with JSON output for production
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("version", getEnv("SERVICE_VERSION", "unknown")).
		Logger()

	return &Logger{&logger}
}

// WithContext returns a logger from context or creates a new one
func WithContext(ctx context.Context, service string) *Logger {
	if logger, ok := ctx.Value(LoggerKey).(*Logger); ok {
		return logger
	}
	return New(service)
}

// ToContext adds logger to context
func (l *Logger) ToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// WithRequestID adds request/correlation ID for tracing
func (l *Logger) WithRequestID(requestID string) *Logger {
	logger := l.Logger.With().Str("request_id", requestID).Logger()
	return &Logger{&logger}
}

// WithJob adds job context for cron jobs
func (l *Logger) WithJob(jobName string) *Logger {
	logger := l.Logger.With().
		Str("job_name", jobName).
		Str("job_type", "cron").
		Logger()
	return &Logger{&logger}
}

// WithMatch adds match context
func (l *Logger) WithMatch(matchID int64, externalID string) *Logger {
	logger := l.Logger.With().
		Int64("match_id", matchID).
		Str("match_external_id", externalID).
		Logger()
	return &Logger{&logger}
}

// WithSchedule adds scheduled-job context
func (l *Logger) WithSchedule(scheduleID string) *Logger {
	logger := l.Logger.With().Str("schedule_id", scheduleID).Logger()
	return &Logger{&logger}
}

// LogJobStart logs job execution start
func (l *Logger) LogJobStart(jobName string, schedule string) {
	l.Info().
		Str("action", "job_start").
		Str("job_name", jobName).
		Str("schedule", schedule).
		Msg("Starting job execution")
}

// LogJobComplete logs job completion with metrics
func (l *Logger) LogJobComplete(jobName string, duration time.Duration, itemsProcessed int, errors int) {
	l.Info().
		Str("action", "job_complete").
		Str("job_name", jobName).
		Dur("duration", duration).
		Int("items_processed", itemsProcessed).
		Int("error_count", errors).
		Bool("has_errors", errors > 0).
		Msg("Job execution completed")
}

// LogPassSummary logs the aggregate outcome of one orchestrator pass
func (l *Logger) LogPassSummary(processed, successful, failed, standingsRefreshed int, duration time.Duration) {
	l.Info().
		Str("action", "pass_complete").
		Int("processed", processed).
		Int("successful", successful).
		Int("failed", failed).
		Int("standings_refreshed", standingsRefreshed).
		Dur("duration", duration).
		Bool("has_errors", failed > 0).
		Msg("Match refresh pass completed")
}

// LogProviderCall logs calls against the upstream provider gateway
func (l *Logger) LogProviderCall(url string, statusCode int, duration time.Duration, err error) {
	event := l.Info()
	if err != nil || statusCode >= 400 {
		event = l.Error()
	}

	event.
		Str("action", "provider_call").
		Str("url", url).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Err(err).
		Msg("Provider request completed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
