// Package notify delivers short user-facing messages ("Map saved
// successfully!") to whatever is presenting them.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	UserID  string    `json:"user_id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Log writes notifications to a zap logger.
type Log struct {
	log *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{log: logger.Named("notify")}
}

func (l *Log) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{zap.String("user_id", n.UserID), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.log.Warn("notification", fields...)
		return
	}
	l.log.Info("notification", fields...)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
