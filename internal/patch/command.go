package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one parsed patch statement. Parsing and formatting round-trip:
// Format(Parse(text)) is a fixed point modulo comments and whitespace.
type Command interface {
	fmt.Stringer
}

// Create instantiates a module: "name: type [waveform] [args...]".
type Create struct {
	Name     string
	Type     string
	Waveform string // osc/lfo waveform selector, empty if not given
	Args     []float32
}

func (c Create) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(": ")
	b.WriteString(c.Type)
	if c.Waveform != "" {
		b.WriteByte(' ')
		b.WriteString(c.Waveform)
	}
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(formatFloat(a))
	}
	return b.String()
}

// Endpoint names a connection end: a module port ("vca.audio"), a bare module
// ("vcf", resolved by the builder), or an output bus face ("out", "out.left").
type Endpoint struct {
	Module string
	Port   string // empty for bare references
}

func (e Endpoint) String() string {
	if e.Port == "" {
		return e.Module
	}
	return e.Module + "." + e.Port
}

// IsOut reports whether the endpoint addresses the output bus.
func (e Endpoint) IsOut() bool { return e.Module == "out" }

// Source is a normalised affine source expression: Scale·source + Offset.
type Source struct {
	Endpoint
	Scale  float32
	Offset float32
}

func (s Source) String() string {
	var b strings.Builder
	b.WriteString(s.Endpoint.String())
	if s.Scale != 1 {
		b.WriteString(" * ")
		b.WriteString(formatFloat(s.Scale))
	}
	if s.Offset != 0 {
		b.WriteString(" + ")
		b.WriteString(formatFloat(s.Offset))
	}
	return b.String()
}

// Connect routes a source expression into a sink: "sink <- src * a + b".
type Connect struct {
	Sink   Endpoint
	Source Source
}

func (c Connect) String() string {
	return c.Sink.String() + " <- " + c.Source.String()
}

// Set assigns a scalar to a parameter or input port: "vcf.cutoff <- 800".
type Set struct {
	Sink  Endpoint
	Value float32
}

func (s Set) String() string {
	return s.Sink.String() + " <- " + formatFloat(s.Value)
}

// Directive is a runtime command embedded in patch text ("start", "stop").
// The graph builder ignores these; the REPL acts on them.
type Directive struct {
	Name string
}

func (d Directive) String() string { return d.Name }

// Format serialises commands back to patch text, one statement per line.
func Format(cmds []Command) string {
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
