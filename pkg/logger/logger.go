package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the process-wide structured logger. JSON output outside
// development so log aggregation stays parseable.
func Init(logLevel string, isDevelopment bool) *logrus.Logger {
	l := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		l.SetLevel(level)
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	l.SetOutput(os.Stdout)

	log = l
	return l
}

// Get returns the global logger, initializing a default one if needed.
func Get() *logrus.Logger {
	if log == nil {
		return Init("info", false)
	}
	return log
}

// WithOptimizationContext scopes a logger to one lineup-generation run.
func WithOptimizationContext(runID string, mode string) *logrus.Entry {
	return Get().WithFields(logrus.Fields{
		"run_id":       runID,
		"scoring_mode": mode,
	})
}

// WithDiscoveryContext scopes a logger to one model-discovery cycle.
func WithDiscoveryContext(cycleID string) *logrus.Entry {
	return Get().WithField("discovery_cycle", cycleID)
}

// WithBacktestContext scopes a logger to one backtest run.
func WithBacktestContext(runID string) *logrus.Entry {
	return Get().WithField("backtest_run", runID)
}

// WithGameContext scopes a logger to one historical game.
func WithGameContext(runID, gameID string) *logrus.Entry {
	return Get().WithFields(logrus.Fields{
		"backtest_run": runID,
		"game_id":      gameID,
	})
}
