package evaluator

import (
	"fmt"
	"strings"
)

// TraceKind tells what happened in a TraceEvent.
type TraceKind uint8

const (
	TraceInvoke TraceKind = iota
	TracePush
	TracePop
)

func (k TraceKind) String() string {
	switch k {
	case TraceInvoke:
		return "invoke"
	case TracePush:
		return "push"
	case TracePop:
		return "pop"
	}
	return "unknown"
}

// TraceEvent describes one change of the expansion stack.
type TraceEvent struct {
	Kind TraceKind
	// Frame is the expansion kind of the pushed or popped frame.
	Frame string
	// Macro names the invoked macro, if any.
	Macro string
	// Depth is the stack size after the change.
	Depth int
	// Nesting counts the argument streams drained by native macros around this event.
	Nesting int
}

func (e TraceEvent) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", e.Nesting))
	fmt.Fprintf(&b, "%-6s depth=%d", e.Kind, e.Depth)
	if e.Frame != "" {
		fmt.Fprintf(&b, " frame=%s", e.Frame)
	}
	if e.Macro != "" {
		fmt.Fprintf(&b, " macro=%s", e.Macro)
	}
	return b.String()
}
