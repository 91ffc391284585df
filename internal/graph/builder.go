package graph

import (
	"github.com/rs/xid"

	"github.com/zimdsp/zimdsp/internal/modules"
	"github.com/zimdsp/zimdsp/internal/patch"
)

// outWrite tracks one connection into an output bus face.
type outWrite struct {
	bound bool
	tap   Tap
}

type builder struct {
	sampleRate int
	instances  []*Instance
	index      map[string]int
	adj        [][]int // module-level edges, src -> sinks
	mono       outWrite
	left       outWrite
	right      outWrite
	errs       BuildErrors
}

// Build compiles commands into a patch. Runtime directives (start/stop) are
// skipped; they belong to the engine, not the graph. On failure the full
// list of structured errors is returned as BuildErrors.
func Build(cmds []patch.Command, sampleRate int) (*Patch, error) {
	b := &builder{
		sampleRate: sampleRate,
		index:      make(map[string]int),
	}

	// Modules first, so connections may reference a module declared on any
	// line. Command order still decides instance ordinals and tie-breaks.
	for _, cmd := range cmds {
		if c, ok := cmd.(patch.Create); ok {
			b.create(c)
		}
	}
	b.adj = make([][]int, len(b.instances))
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case patch.Connect:
			b.connect(c)
		case patch.Set:
			b.set(c)
		}
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	if cycle := b.findCycle(); cycle != nil {
		return nil, BuildErrors{{Kind: ErrCycle, Cycle: cycle}}
	}
	order := b.topoSort()
	routing := b.resolveRouting()
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	return &Patch{
		ID:         xid.New().String(),
		SampleRate: sampleRate,
		Instances:  b.instances,
		Order:      order,
		Routing:    routing,
		Index:      b.index,
	}, nil
}

func (b *builder) fail(e *BuildError) {
	b.errs = append(b.errs, e)
}

func (b *builder) create(c patch.Create) {
	if c.Name == "out" {
		b.fail(&BuildError{Kind: ErrDuplicateModule, Module: c.Name, Msg: "out names the output bus"})
		return
	}
	if _, ok := b.index[c.Name]; ok {
		b.fail(&BuildError{Kind: ErrDuplicateModule, Module: c.Name})
		return
	}
	mod, err := modules.New(c.Type, modules.Config{
		Waveform:   c.Waveform,
		Args:       c.Args,
		Ordinal:    len(b.instances),
		SampleRate: b.sampleRate,
	})
	if err != nil {
		kind := ErrArity
		if _, known := modules.Canonical(c.Type); !known {
			kind = ErrUnknownType
		}
		b.fail(&BuildError{Kind: kind, Module: c.Name, Msg: err.Error()})
		return
	}
	spec := mod.Spec()
	inst := &Instance{
		Name:     c.Name,
		Type:     spec.Type,
		Module:   mod,
		Spec:     spec,
		Bindings: make([]Binding, len(spec.Inputs)),
		In:       make([]float32, len(spec.Inputs)),
		Out:      make([]float32, len(spec.Outputs)),
	}
	for i, port := range spec.Inputs {
		if port.Param != "" {
			inst.Bindings[i] = Binding{Kind: BindParam, ParamName: port.Param}
		} else {
			inst.Bindings[i] = Binding{Kind: BindConst, Const: port.Default}
		}
	}
	b.index[c.Name] = len(b.instances)
	b.instances = append(b.instances, inst)
}

// resolveSource turns a source endpoint into a tap. Bare module references
// use the module's default output.
func (b *builder) resolveSource(src patch.Source) (Tap, bool) {
	if src.IsOut() {
		b.fail(&BuildError{Kind: ErrBadEndpoint, Module: "out", Msg: "the output bus is not a source"})
		return Tap{}, false
	}
	i, ok := b.index[src.Module]
	if !ok {
		b.fail(&BuildError{Kind: ErrUnknownModule, Module: src.Module})
		return Tap{}, false
	}
	inst := b.instances[i]
	portName := src.Port
	if portName == "" {
		portName = inst.Spec.DefaultOut
	}
	p := inst.Spec.OutputIndex(portName)
	if p < 0 {
		b.fail(&BuildError{Kind: ErrUnknownPort, Module: src.Module, Port: portName})
		return Tap{}, false
	}
	return Tap{Valid: true, Src: i, Port: p, Scale: src.Scale, Offset: src.Offset}, true
}

func (b *builder) connect(c patch.Connect) {
	tap, ok := b.resolveSource(c.Source)
	if !ok {
		return
	}
	if c.Sink.IsOut() {
		b.connectOut(c.Sink.Port, tap)
		return
	}

	i, ok := b.index[c.Sink.Module]
	if !ok {
		b.fail(&BuildError{Kind: ErrUnknownModule, Module: c.Sink.Module})
		return
	}
	inst := b.instances[i]
	portName := c.Sink.Port
	if portName == "" {
		portName = inst.Spec.DefaultIn
	}

	conn := Conn{Src: tap.Src, Port: tap.Port, Scale: tap.Scale, Offset: tap.Offset}
	if p := inst.Spec.InputIndex(portName); p >= 0 {
		bind := &inst.Bindings[p]
		if bind.Kind == BindConn && !inst.Spec.Inputs[p].Summing {
			b.fail(&BuildError{Kind: ErrAlreadyConnected, Module: c.Sink.Module, Port: portName})
			return
		}
		if bind.Kind != BindConn {
			*bind = Binding{Kind: BindConn}
		}
		bind.Conns = append(bind.Conns, conn)
		b.addEdge(tap.Src, i)
		return
	}
	if inst.Spec.HasParam(portName) {
		for _, pb := range inst.ParamBindings {
			if pb.Name == portName {
				b.fail(&BuildError{Kind: ErrAlreadyConnected, Module: c.Sink.Module, Port: portName})
				return
			}
		}
		inst.ParamBindings = append(inst.ParamBindings, ParamBinding{Name: portName, Conn: conn})
		b.addEdge(tap.Src, i)
		return
	}
	b.fail(&BuildError{Kind: ErrUnknownPort, Module: c.Sink.Module, Port: portName})
}

func (b *builder) connectOut(face string, tap Tap) {
	var w *outWrite
	switch face {
	case "":
		w = &b.mono
	case "left":
		w = &b.left
	case "right":
		w = &b.right
	default:
		b.fail(&BuildError{Kind: ErrUnknownPort, Module: "out", Port: face})
		return
	}
	if w.bound {
		b.fail(&BuildError{Kind: ErrAlreadyConnected, Module: "out", Port: face})
		return
	}
	w.bound = true
	w.tap = tap
}

func (b *builder) set(c patch.Set) {
	if c.Sink.IsOut() {
		b.fail(&BuildError{Kind: ErrBadEndpoint, Module: "out", Msg: "cannot assign a literal to the output bus"})
		return
	}
	i, ok := b.index[c.Sink.Module]
	if !ok {
		b.fail(&BuildError{Kind: ErrUnknownModule, Module: c.Sink.Module})
		return
	}
	inst := b.instances[i]
	name := c.Sink.Port
	if name == "" {
		b.fail(&BuildError{Kind: ErrBadEndpoint, Module: c.Sink.Module, Msg: "literal assignment needs a parameter name"})
		return
	}
	if inst.Spec.HasParam(name) {
		if err := inst.Module.SetParam(name, c.Value); err != nil {
			b.fail(&BuildError{Kind: ErrArity, Module: c.Sink.Module, Port: name, Msg: err.Error()})
		}
		return
	}
	if p := inst.Spec.InputIndex(name); p >= 0 {
		bind := &inst.Bindings[p]
		if bind.Kind == BindConn {
			b.fail(&BuildError{Kind: ErrAlreadyConnected, Module: c.Sink.Module, Port: name})
			return
		}
		*bind = Binding{Kind: BindConst, Const: c.Value}
		return
	}
	b.fail(&BuildError{Kind: ErrUnknownPort, Module: c.Sink.Module, Port: name})
}

func (b *builder) addEdge(src, sink int) {
	b.adj[src] = append(b.adj[src], sink)
}

// findCycle runs a depth-first search over the module-level adjacency and
// returns the first cycle found, as the list of module names on it.
func (b *builder) findCycle() []string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make([]int, len(b.instances))
	stack := make([]int, 0, len(b.instances))

	var cycle []string
	var visit func(int) bool
	visit = func(n int) bool {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range b.adj[n] {
			switch color[next] {
			case white:
				if visit(next) {
					return true
				}
			case grey:
				// Back edge: the cycle is the stack suffix from next.
				for i, m := range stack {
					if m == next {
						for _, idx := range stack[i:] {
							cycle = append(cycle, b.instances[idx].Name)
						}
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}
	for n := range b.instances {
		if color[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

// topoSort runs Kahn's algorithm with declaration order as the tie-break, so
// evaluation order is deterministic and testable.
func (b *builder) topoSort() []int {
	n := len(b.instances)
	indeg := make([]int, n)
	for _, sinks := range b.adj {
		for _, s := range sinks {
			indeg[s]++
		}
	}
	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			// Unreachable: cycles are rejected before sorting.
			break
		}
		done[next] = true
		order = append(order, next)
		for _, s := range b.adj[next] {
			indeg[s]--
		}
	}
	return order
}

func (b *builder) resolveRouting() Routing {
	if b.mono.bound && (b.left.bound || b.right.bound) {
		b.fail(&BuildError{
			Kind: ErrOutputConflict,
			Msg:  "patch writes both out and out.left/out.right",
		})
		return Routing{}
	}
	switch {
	case b.mono.bound:
		return Routing{Mode: RouteMono, L: b.mono.tap, R: b.mono.tap}
	case b.left.bound && b.right.bound:
		return Routing{Mode: RouteStereo, L: b.left.tap, R: b.right.tap}
	case b.left.bound:
		return Routing{Mode: RouteLeftOnly, L: b.left.tap}
	case b.right.bound:
		return Routing{Mode: RouteStereo, R: b.right.tap}
	}
	return Routing{Mode: RouteNone}
}

// Describe exposes a module type's port surface for the REPL's inspect
// command.
func Describe(typeName string) (modules.Spec, error) {
	return modules.Describe(typeName)
}
