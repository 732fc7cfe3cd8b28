package filters

import (
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes one visibility predicate evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Field    string
	Parent   string
	Duration time.Duration
	Visible  bool
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger reports evaluations at DEBUG and failures at WARN.
func SlogEvaluatorLogger(logger *slog.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		attrs := []any{
			"engine", event.Engine,
			"field", event.Field,
			"parent", event.Parent,
			"duration", event.Duration,
		}
		if event.Expr != "" {
			attrs = append(attrs, "expr", event.Expr)
		}
		if event.Err != nil {
			logger.Warn("visibility predicate failed", append(attrs, "err", event.Err)...)
			return
		}
		logger.Debug("visibility predicate evaluated", append(attrs, "visible", event.Visible)...)
	})
}

// WithEvaluatorLogger attaches an evaluator logger to the Store.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
