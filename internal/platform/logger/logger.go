package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/foodgram-backend/internal/platform/envutil"
)

// Logger is the structured logger shared by repos, services and handlers.
// Key/value pairs pass through a scrubber before they reach zap.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

// New builds a logger for mode: "production" emits JSON at info,
// "test" discards everything, anything else is the console development
// encoder at debug. LOG_LEVEL overrides the level.
func New(mode string) (*Logger, error) {
	sc := scrubberFromEnv()
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "test" || mode == "nop" {
		return &Logger{SugaredLogger: zap.NewNop().Sugar(), scrub: sc}, nil
	}
	zl, err := zapConfig(mode, envutil.String("LOG_LEVEL")).Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar(), scrub: sc}, nil
}

func zapConfig(mode, level string) zap.Config {
	var (
		cfg zap.Config
		def zapcore.Level
	)
	if mode == "prod" || mode == "production" {
		cfg, def = zap.NewProductionConfig(), zap.InfoLevel
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg, def = zap.NewDevelopmentConfig(), zap.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level, def))
	cfg.InitialFields = map[string]interface{}{"service": "foodgram"}
	return cfg
}

func parseLevel(raw string, def zapcore.Level) zapcore.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return def
	}
	return lvl
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.scrub.kvs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.scrub.kvs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.scrub.kvs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.scrub.kvs(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.scrub.kvs(keysAndValues)...)
}

// With returns a child logger that carries keysAndValues on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.scrub.kvs(keysAndValues)...),
		scrub:         l.scrub,
	}
}
