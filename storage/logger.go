package storage

import (
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Logger is the structured logging sink the buffer pool and its
// collaborators write through. Implementations translate key-value pairs
// into whatever the caller's logging stack expects.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// slogLogger adapts log/slog, the default when no Logger is configured.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps slog.Default(), or a custom *slog.Logger if one is
// given.
func NewSlogLogger(l ...*slog.Logger) Logger {
	if len(l) > 0 && l[0] != nil {
		return &slogLogger{l: l[0]}
	}
	return &slogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, nil))}
}

func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

// zapLogger adapts a *zap.Logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l.Sugar()}
}

func (z *zapLogger) Info(msg string, kv ...any)  { z.l.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.l.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.l.Errorw(msg, kv...) }

// logrusLogger adapts a *logrus.Logger.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger wraps an existing *logrus.Logger.
func NewLogrusLogger(l *logrus.Logger) Logger {
	return &logrusLogger{l: l}
}

func (lg *logrusLogger) Info(msg string, kv ...any)  { lg.l.WithFields(kvFields(kv)).Info(msg) }
func (lg *logrusLogger) Warn(msg string, kv ...any)  { lg.l.WithFields(kvFields(kv)).Warn(msg) }
func (lg *logrusLogger) Error(msg string, kv ...any) { lg.l.WithFields(kvFields(kv)).Error(msg) }

// kvFields pairs up a flat key-value slice into logrus.Fields, dropping a
// trailing key with no value rather than panicking.
func kvFields(kv []any) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
