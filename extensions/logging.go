package extensions

import (
	"log/slog"
	"time"

	lazy "github.com/pumped-fn/lazy-go"
)

// LoggingExtension logs all operations
type LoggingExtension struct {
	lazy.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension. With a nil logger
// it logs through the registry logger.
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: lazy.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) Init(r *lazy.Registry) error {
	if e.logger == nil {
		e.logger = r.Logger()
	}
	return nil
}

func (e *LoggingExtension) Wrap(next func() (any, error), op *lazy.Operation) (any, error) {
	start := time.Now()
	e.logger.Debug("operation starting", "op", string(op.Kind), "class", op.Class, "slot", op.Slot)
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.logger.Warn("operation failed", "op", string(op.Kind), "class", op.Class, "slot", op.Slot, "duration", duration, "error", err)
	} else {
		e.logger.Debug("operation completed", "op", string(op.Kind), "class", op.Class, "slot", op.Slot, "duration", duration)
	}

	return result, err
}

func (e *LoggingExtension) Observe(op *lazy.Operation) {
	attrs := []any{"op", string(op.Kind)}
	if op.Class != "" {
		attrs = append(attrs, "class", op.Class, "slot", op.Slot)
	}
	if op.Entity != nil {
		attrs = append(attrs, "entity", lazy.Describe(op.Entity))
	}
	e.logger.Debug("operation observed", attrs...)
}

func (e *LoggingExtension) OnRestockError(err *lazy.RestockError) bool {
	e.logger.Error("restock callback failed", "entity", lazy.Describe(err.Entity), "error", err.Err)
	return true
}
