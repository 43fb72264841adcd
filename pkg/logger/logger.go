package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	// WarnStack attaches a stack trace to warnings as well as errors.
	WarnStack   bool
	// Console switches to zerolog's human readable writer for local runs.
	Console     bool
	Output      io.Writer
}

// Logger carries request scoped fields through context.Context so services
// never thread a logger instance per call.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type scopedKey struct{}

func New(opts Options) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	root := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{root: root, warnStack: opts.WarnStack}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{root: zerolog.Nop()}
}

// ParseLevel maps SERVICEDESK_LOG_LEVEL onto a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) scoped(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if s, ok := ctx.Value(scopedKey{}).(*zerolog.Logger); ok {
			return s
		}
	}
	return &l.root
}

func (l *Logger) with(ctx context.Context, extend func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	next := extend(l.scoped(ctx).With()).Logger()
	return context.WithValue(ctx, scopedKey{}, &next)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID uint) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.scoped(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.scoped(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	ev := l.scoped(ctx).Warn()
	if l.warnStack {
		ev = ev.Str("stack", stack())
	}
	ev.Msg(msg)
}

// Error always records the stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.scoped(ctx).Error().Err(err).Str("stack", stack()).Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
