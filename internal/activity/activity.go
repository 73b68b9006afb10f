// Package activity routes security-relevant events (login, logout, password
// changes, reset requests) to one or more sinks. Delivery is best-effort.
package activity

import (
	"context"

	"go.uber.org/zap"
)

// Action names recorded by the authentication core
const (
	ActionLogin                = "login"
	ActionLoginFailed          = "login_failed"
	ActionLogout               = "logout"
	ActionPasswordChange       = "password_change"
	ActionPasswordResetRequest = "password_reset_request"
	ActionPasswordReset        = "password_reset"
	ActionStatusChange         = "status_change"
	ActionUserCreated          = "user_created"
)

// Sink receives activity events
type Sink interface {
	LogActivity(ctx context.Context, userID int64, action, message string) error
}

// Recorder fans an event out to every sink. Sink failures are logged and
// never returned to the caller.
type Recorder struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewRecorder creates a recorder over the given sinks
func NewRecorder(logger *zap.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logger: logger}
}

// Record delivers the event to all sinks
func (r *Recorder) Record(ctx context.Context, userID int64, action, message string) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		if err := s.LogActivity(ctx, userID, action, message); err != nil {
			r.logger.Warn("activity sink failed",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.String("action", action),
			)
		}
	}
}

// LogSink writes events to the structured log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs each event at info level
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("activity")}
}

func (s *LogSink) LogActivity(_ context.Context, userID int64, action, message string) error {
	s.logger.Info(message, zap.Int64("user_id", userID), zap.String("action", action))
	return nil
}
