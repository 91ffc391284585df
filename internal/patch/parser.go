package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed patch line.
type ParseError struct {
	Line int // 1-based line number, 0 when parsing a bare statement
	Col  int // 1-based byte offset of the offending token
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("col %d: %s", e.Col, e.Msg)
}

var waveformNames = map[string]string{
	"sine":     "sine",
	"saw":      "saw",
	"square":   "square",
	"tri":      "triangle",
	"triangle": "triangle",
}

// Parse reads patch text line by line. Blank lines and "#" comments are
// skipped. The parser does not check that modules or ports exist; that is the
// graph builder's job.
func Parse(text string) ([]Command, error) {
	var cmds []Command
	for i, raw := range strings.Split(text, "\n") {
		line := stripComment(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseLine(line)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = i + 1
				return nil, pe
			}
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// ParseLine parses a single statement. The statement must not be blank.
func ParseLine(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	col := strings.Index(line, trimmed) + 1

	switch trimmed {
	case "start", "stop":
		return Directive{Name: trimmed}, nil
	}

	if i := strings.Index(trimmed, "<-"); i >= 0 {
		return parseArrow(trimmed, i, col)
	}
	if i := strings.IndexByte(trimmed, ':'); i >= 0 {
		return parseCreate(trimmed, i, col)
	}
	return nil, &ParseError{Col: col, Msg: fmt.Sprintf("cannot parse %q", trimmed)}
}

func parseCreate(s string, colon, col int) (Command, error) {
	name := strings.TrimSpace(s[:colon])
	if name == "" || !isIdent(name) {
		return nil, &ParseError{Col: col, Msg: fmt.Sprintf("bad module name %q", name)}
	}
	fields := strings.Fields(s[colon+1:])
	if len(fields) == 0 {
		return nil, &ParseError{Col: col + colon + 1, Msg: "missing module type"}
	}
	cmd := Create{Name: name, Type: fields[0]}
	for _, f := range fields[1:] {
		if v, err := strconv.ParseFloat(f, 32); err == nil {
			cmd.Args = append(cmd.Args, float32(v))
			continue
		}
		if wf, ok := waveformNames[f]; ok && cmd.Waveform == "" && len(cmd.Args) == 0 {
			cmd.Waveform = wf
			continue
		}
		return nil, &ParseError{
			Col: col + strings.Index(s, f),
			Msg: fmt.Sprintf("bad argument %q", f),
		}
	}
	return cmd, nil
}

func parseArrow(s string, arrow, col int) (Command, error) {
	sink, err := parseEndpoint(strings.TrimSpace(s[:arrow]), col)
	if err != nil {
		return nil, err
	}
	rhs := strings.TrimSpace(s[arrow+2:])
	rhsCol := col + arrow + 2
	if rhs == "" {
		return nil, &ParseError{Col: rhsCol, Msg: "missing source expression"}
	}
	if v, err := strconv.ParseFloat(rhs, 32); err == nil {
		return Set{Sink: sink, Value: float32(v)}, nil
	}
	src, err := parseSource(rhs, rhsCol)
	if err != nil {
		return nil, err
	}
	return Connect{Sink: sink, Source: src}, nil
}

// parseSource normalises an affine expression over one endpoint to
// (endpoint, scale, offset). Accepted shapes: src, src*k, k*src, src+k,
// k+src, src*k1+k2 and their spelled-out commutations with a numeric literal
// on either side of each operator. Two signal operands are rejected; mixing
// signals takes a mixer module.
func parseSource(s string, col int) (Source, error) {
	src := Source{Scale: 1}

	terms := strings.Split(s, "+")
	if len(terms) > 2 {
		return src, &ParseError{Col: col, Msg: "too many terms in source expression"}
	}
	var signal string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if v, err := strconv.ParseFloat(term, 32); err == nil {
			src.Offset += float32(v)
			continue
		}
		if signal != "" {
			return src, &ParseError{Col: col, Msg: "expression mixes two signals; use a mixer"}
		}
		signal = term
	}
	if signal == "" {
		return src, &ParseError{Col: col, Msg: "source expression has no signal"}
	}

	factors := strings.Split(signal, "*")
	if len(factors) > 2 {
		return src, &ParseError{Col: col, Msg: "too many factors in source expression"}
	}
	var ref string
	for _, f := range factors {
		f = strings.TrimSpace(f)
		if v, err := strconv.ParseFloat(f, 32); err == nil {
			src.Scale *= float32(v)
			continue
		}
		if ref != "" {
			return src, &ParseError{Col: col, Msg: "expression mixes two signals; use a mixer"}
		}
		ref = f
	}
	if ref == "" {
		return src, &ParseError{Col: col, Msg: "source expression has no signal"}
	}

	ep, err := parseEndpoint(ref, col)
	if err != nil {
		return src, err
	}
	src.Endpoint = ep
	return src, nil
}

func parseEndpoint(s string, col int) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, &ParseError{Col: col, Msg: "empty endpoint"}
	}
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		if !isIdent(parts[0]) {
			return Endpoint{}, &ParseError{Col: col, Msg: fmt.Sprintf("bad endpoint %q", s)}
		}
		return Endpoint{Module: parts[0]}, nil
	case 2:
		if !isIdent(parts[0]) || !isIdent(parts[1]) {
			return Endpoint{}, &ParseError{Col: col, Msg: fmt.Sprintf("bad endpoint %q", s)}
		}
		return Endpoint{Module: parts[0], Port: parts[1]}, nil
	default:
		return Endpoint{}, &ParseError{Col: col, Msg: fmt.Sprintf("bad endpoint %q", s)}
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
