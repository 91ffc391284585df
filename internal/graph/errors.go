package graph

import (
	"fmt"
	"strings"
)

// ErrorKind classifies build failures.
type ErrorKind int

const (
	ErrUnknownType ErrorKind = iota
	ErrUnknownModule
	ErrUnknownPort
	ErrDuplicateModule
	ErrAlreadyConnected
	ErrCycle
	ErrOutputConflict
	ErrArity
	ErrBadEndpoint
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownType:
		return "unknown module type"
	case ErrUnknownModule:
		return "unknown module"
	case ErrUnknownPort:
		return "unknown port"
	case ErrDuplicateModule:
		return "duplicate module"
	case ErrAlreadyConnected:
		return "input already connected"
	case ErrCycle:
		return "cycle"
	case ErrOutputConflict:
		return "output conflict"
	case ErrArity:
		return "bad arguments"
	case ErrBadEndpoint:
		return "bad endpoint"
	}
	return "build error"
}

// BuildError is one structured graph-compilation failure.
type BuildError struct {
	Kind   ErrorKind
	Module string
	Port   string
	Cycle  []string // populated for ErrCycle
	Msg    string
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Module != "" {
		fmt.Fprintf(&b, " %q", e.Module)
		if e.Port != "" {
			fmt.Fprintf(&b, " port %q", e.Port)
		}
	}
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Cycle, " -> "))
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// BuildErrors aggregates every failure found in one build pass.
type BuildErrors []*BuildError

func (es BuildErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(es), strings.Join(msgs, "; "))
}
