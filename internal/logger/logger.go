package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const EnvKey = "BACKTEST_ENV"

func New() *zap.SugaredLogger {
	var (
		logger *zap.Logger
		err    error
	)
	opts := []zap.Option{
		zap.AddStacktrace(zap.ErrorLevel),
	}

	env := os.Getenv(EnvKey)
	switch strings.ToLower(env) {
	case "dev", "test":
		logger, err = zap.NewDevelopment(opts...)
	default:
		opts = append(opts, zap.Fields(zap.Field{
			Key:    EnvKey,
			Type:   zapcore.StringType,
			String: env,
		}))
		logger, err = zap.NewProduction(opts...)
	}

	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}

	return logger.Sugar()
}

type contextKey string

const ContextKey contextKey = "LOGGER"

func WithLogger(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ContextKey, log)
}

func FromContext(ctx context.Context) *zap.SugaredLogger {
	logger, ok := ctx.Value(ContextKey).(*zap.SugaredLogger)
	if !ok || logger == nil {
		logger = zap.S()
		logger.Debug("no logger found in ctx - using global")
	}
	return logger
}

func init() {
	logger := New()
	zap.ReplaceGlobals(logger.Desugar())
}
