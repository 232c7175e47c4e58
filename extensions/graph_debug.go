package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	lazy "github.com/pumped-fn/lazy-go"
)

// GraphDebugExtension logs the dependency tree of an object when one of
// its computations or writes fails. Pair it with HumanHandler for a
// readable report, or any slog.Handler for structured records:
//
//	ext := extensions.NewGraphDebugExtension(extensions.NewHumanHandler(os.Stderr, slog.LevelError))
type GraphDebugExtension struct {
	lazy.BaseExtension

	computed map[string]int
	failed   map[string]error
	logger   *slog.Logger
}

// NewGraphDebugExtension logs through logHandler at ERROR level.
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: lazy.NewBaseExtension("graph-debug"),
		computed:      make(map[string]int),
		failed:        make(map[string]error),
		logger:        slog.New(logHandler),
	}
}

// Wrap counts successful computes and remembers the last failure per slot.
func (e *GraphDebugExtension) Wrap(next func() (any, error), op *lazy.Operation) (any, error) {
	result, err := next()

	if op.Kind == lazy.OpCompute {
		key := op.Class + "." + op.Slot
		if err == nil {
			e.computed[key]++
			delete(e.failed, key)
		} else {
			e.failed[key] = err
		}
	}

	return result, err
}

// OnError logs the dependency tree of the object the operation ran on
func (e *GraphDebugExtension) OnError(err error, op *lazy.Operation, r *lazy.Registry) {
	attrs := []any{
		"slot", op.Class + "." + op.Slot,
		"error", err.Error(),
		"operation", string(op.Kind),
	}
	if op.Object != nil && !op.Object.Released() {
		attrs = append(attrs, "object", op.Object.String(), "dependency_tree", e.formatTree(op.Object))
	}
	e.logger.Error("Slot Operation Error", attrs...)
}

// Computed returns how many times a slot, named "Class.slot", was computed
// successfully.
func (e *GraphDebugExtension) Computed(slot string) int {
	return e.computed[slot]
}

// Failure returns the last error of a slot, named "Class.slot", or nil if
// its last computation succeeded.
func (e *GraphDebugExtension) Failure(slot string) error {
	return e.failed[slot]
}

func (e *GraphDebugExtension) formatTree(o *lazy.Object) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(RenderTree(o))
	if len(e.failed) > 0 {
		sb.WriteString("\nFailed Slots:\n")
		for slot, err := range e.failed {
			sb.WriteString(fmt.Sprintf("  %s ❌ %v\n", slot, err))
		}
	}
	return sb.String()
}

// SilentHandler drops every record.
type SilentHandler struct{}

func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(context.Context, slog.Level) bool { return false }
func (h *SilentHandler) Handle(context.Context, slog.Record) error { return nil }
func (h *SilentHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *SilentHandler) WithGroup(string) slog.Handler { return h }

// HumanHandler prints records as indented text. Slot failures from
// GraphDebugExtension get a framed report with the dependency tree.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "Slot Operation Error" {
		return h.handleSlotError(record)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", record.Level, record.Message)
	record.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, "  %s: %v\n", a.Key, a.Value)
		return true
	})
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *HumanHandler) handleSlotError(record slog.Record) error {
	fields := map[string]string{}
	record.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.String()
		return true
	})

	rule := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\n[GraphDebug] Slot Operation Error\n%s\n", rule, rule)
	fmt.Fprintf(&sb, "\nFailed Slot: %s\n", fields["slot"])
	fmt.Fprintf(&sb, "Error: %s\n", fields["error"])
	fmt.Fprintf(&sb, "Operation: %s\n", fields["operation"])
	if object := fields["object"]; object != "" {
		fmt.Fprintf(&sb, "Object: %s\n\nDependency Tree:%s", object, fields["dependency_tree"])
	}
	fmt.Fprintf(&sb, "%s\n\n", rule)

	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// Attributes and groups are not carried over; records print only their own
// attributes.
func (h *HumanHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *HumanHandler) WithGroup(string) slog.Handler { return h }
