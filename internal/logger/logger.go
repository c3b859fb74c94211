package logger

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

const serviceName = "kavyalok-backend"

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

type ctxKey struct{}

// Tests and tools that never reach main still need a usable logger.
func init() {
	InitLogger("development")
}

// InitLogger rebuilds the global logger for the given environment. Production
// logs are JSON.
func InitLogger(env string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	Log = logger.WithFields(logrus.Fields{
		"service":        serviceName,
		"is_development": env != "production",
	})
}

// WithEntry stores a request scoped entry in ctx.
func WithEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the request scoped entry, or the global one.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return Log
}
