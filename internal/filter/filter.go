// Package filter compiles and evaluates event filter expressions.
//
// Expressions are written in expr-lang over a small, flat view of an
// event (name, category, timestamp, duration and the context ids) and
// must evaluate to a boolean, e.g.
//
//	category == "KERNEL_DISPATCH" && duration > 1000
//	name startsWith "memory_copy"
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	log "github.com/sirupsen/logrus"

	"github.com/ammarwa/rocpd-stream/internal/stream"
)

// Filter is a pre-compiled event predicate.
type Filter struct {
	expression string
	program    *vm.Program
}

// exprEnv is the typed environment filter expressions run in. Context
// ids that are absent on an event appear as -1.
func exprEnv(ev stream.Event) map[string]any {
	return map[string]any{
		"name":      ev.Name,
		"category":  ev.Category,
		"timestamp": ev.Timestamp,
		"duration":  ev.Duration,
		"pid":       orMinusOne(ev.PID),
		"tid":       orMinusOne(ev.TID),
		"agent_id":  orMinusOne(ev.AgentID),
		"queue_id":  orMinusOne(ev.QueueID),
		"stream_id": orMinusOne(ev.StreamID),
	}
}

func orMinusOne(v *int64) int64 {
	if v == nil {
		return -1
	}
	return *v
}

// Compile pre-compiles a filter expression. Compilation failures are
// configuration errors and are reported immediately.
func Compile(expression string) (*Filter, error) {
	program, err := expr.Compile(expression,
		expr.Env(exprEnv(stream.Event{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// Match evaluates the filter against one event. Runtime evaluation
// errors drop the event and are logged, never propagated.
func (f *Filter) Match(ev stream.Event) bool {
	output, err := expr.Run(f.program, exprEnv(ev))
	if err != nil {
		log.WithError(err).WithField("expression", f.expression).
			Warn("filter evaluation failed, dropping event")
		return false
	}
	matched, ok := output.(bool)
	return ok && matched
}

// Apply returns the events that match, preserving order.
func (f *Filter) Apply(events []stream.Event) []stream.Event {
	out := make([]stream.Event, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}
