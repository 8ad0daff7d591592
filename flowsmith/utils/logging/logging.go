package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

// TraceIDKey is the context key LogDuration reads a trace id from.
const TraceIDKey contextKey = "trace_id"

// Loggers are no-ops until InitLogger runs so packages stay usable in tests.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

// ensureLogsDir makes sure the log folder exists
func ensureLogsDir(dir string) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		panic("Failed to create logs directory: " + err.Error())
	}
}

func newFileCore(encoder zapcore.Encoder, path string, maxSize, maxAge int, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(encoder,
		zapcore.AddSync(&lumberjack.Logger{
			Filename: path, MaxSize: maxSize, MaxAge: maxAge, Compress: true,
		}),
		level,
	)
}

func InitLogger(dir string) {
	if dir == "" {
		dir = "./logs"
	}
	ensureLogsDir(dir)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	// app.log (general logs)
	AppLogger = zap.New(newFileCore(encoder, filepath.Join(dir, "app.log"), 100, 28, zap.InfoLevel))

	// request.log
	RequestLogger = zap.New(newFileCore(encoder, filepath.Join(dir, "request.log"), 50, 7, zap.InfoLevel))

	// timer.log
	TimerLogger = zap.New(newFileCore(encoder, filepath.Join(dir, "timer.log"), 50, 7, zap.InfoLevel))

	// error.log
	ErrorLogger = zap.New(newFileCore(encoder, filepath.Join(dir, "error.log"), 100, 30, zap.ErrorLevel))
}

// Sync flushes every logger. Call it on shutdown.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()

	traceID, _ := ctx.Value(TraceIDKey).(string)

	return func() {
		duration := time.Since(start).Milliseconds()
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", duration),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		// write ONLY to timer.log
		TimerLogger.Info("Function timed", fields...)
	}
}

// WithTraceID stores a trace id for LogDuration.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}
