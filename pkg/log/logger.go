package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "error.stacktrace"
	detailSuffix      = "_detail"
)

// ZerologLogger is the default Logger backed by zerolog.
// Loggers derived through With share the level of their parent.
type ZerologLogger struct {
	zl    zerolog.Logger
	level *atomic.Int64
}

// NewZerologLogger creates a logger writing JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	lv := &atomic.Int64{}
	lv.Store(int64(level))
	return &ZerologLogger{
		zl:    zerolog.New(w).With().Timestamp().Logger(),
		level: lv,
	}
}

// Debug implements Logger.Debug.
func (l *ZerologLogger) Debug(msg string, fields ...any) { l.log(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (l *ZerologLogger) Info(msg string, fields ...any) { l.log(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (l *ZerologLogger) Warn(msg string, fields ...any) { l.log(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (l *ZerologLogger) Error(msg string, fields ...any) { l.log(LevelError, msg, fields) }

// Enabled implements Logger.Enabled.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= Level(l.level.Load())
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *ZerologLogger) SetLevel(level Level) {
	l.level.Store(int64(level))
}

// With implements Logger.With.
func (l *ZerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{zl: ctx.Logger(), level: l.level}
}

func (l *ZerologLogger) log(level Level, msg string, fields []any) {
	if !l.Enabled(context.Background(), level) {
		return
	}

	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = l.zl.Debug()
	case LevelInfo:
		ev = l.zl.Info()
	case LevelWarn:
		ev = l.zl.Warn()
	default:
		ev = l.zl.Error()
	}

	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = appendError(ev, ErrAttrKey, err)
			fields = fields[1:]
		}
	}
	appendFields(ev, fields).Msg(msg)
}

func appendFields(ev *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = appendError(ev, key, v)
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	if len(fields)%2 == 1 {
		ev = ev.Interface("!BADKEY", fields[len(fields)-1])
	}
	return ev
}

// appendError logs err, the structured form of the first typed error in its
// chain, and the stack trace recorded by cockroachdb/errors.
func appendError(ev *zerolog.Event, key string, err error) *zerolog.Event {
	ev = ev.AnErr(key, err)
	var marshaler zerolog.LogObjectMarshaler
	if errors.As(err, &marshaler) {
		ev = ev.Object(key+detailSuffix, marshaler)
	}
	if st := errors.Stacktrace(err); st != "" {
		ev = ev.Str(StacktraceAttrKey, st)
	}
	return ev
}

// ===========================================================================
// Process-wide provider
// ===========================================================================

type zerologProvider struct {
	root  *ZerologLogger
	named sync.Map // component name -> Logger
}

// NewZerologProvider creates a LoggerProvider whose loggers write to w.
func NewZerologProvider(w io.Writer, level Level) LoggerProvider {
	return &zerologProvider{root: NewZerologLogger(w, level)}
}

func (p *zerologProvider) GetLogger() Logger { return p.root }

// GetLoggerWithName builds each named logger once; table code asks for it on every block.
func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	if l, ok := p.named.Load(name); ok {
		return l.(Logger)
	}
	l, _ := p.named.LoadOrStore(name, p.root.With(ComponentKey, name))
	return l.(Logger)
}

func (p *zerologProvider) SetLevel(level Level) { p.root.SetLevel(level) }

var (
	providerMu sync.RWMutex
	provider   = NewZerologProvider(os.Stderr, LevelWarn)
)

func init() {
	errors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), "warning", w)
	})
}

// SetProvider replaces the process-wide provider. Tests use it to capture output.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the process-wide provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

// SetupLogger installs a JSON logger on stderr at the given level
// ("debug", "info", "warn", "error"). Stdout stays free for command output.
func SetupLogger(level string) error {
	lv, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetProvider(NewZerologProvider(os.Stderr, lv))
	return nil
}

// ParseLevel converts a level name into a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log-level", "must be one of debug, info, warn, error", level)
	}
}
