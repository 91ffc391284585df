// Package graph compiles parsed patch commands into an executable artifact:
// typed module instances, resolved connections with their affine transforms,
// a topological evaluation order and the stereo output routing. Everything
// the audio thread touches is allocated here, on the control side.
package graph

import (
	"github.com/zimdsp/zimdsp/internal/modules"
)

// BindKind says how an input port gets its value each frame.
type BindKind int

const (
	// BindConst feeds a compile-time constant (the port default or a literal
	// assignment).
	BindConst BindKind = iota
	// BindParam reads the named parameter of the owning module each frame,
	// so SetParam commands reach unbound ports immediately.
	BindParam
	// BindConn evaluates one or more connections and sums them.
	BindConn
)

// Conn is one resolved connection: read the source instance's cached output,
// then apply the fused multiply-add.
type Conn struct {
	Src    int // instance index
	Port   int // output port index on Src
	Scale  float32
	Offset float32
}

// Binding is the compiled feed for a single input port.
type Binding struct {
	Kind      BindKind
	Const     float32
	ParamName string
	Conns     []Conn
}

// ParamBinding modulates a parameter from a connection; it is evaluated in
// the execution loop exactly like a port binding.
type ParamBinding struct {
	Name string
	Conn Conn
}

// Instance is one module in the compiled patch, with its scratch vectors.
type Instance struct {
	Name   string
	Type   string
	Module modules.Module
	Spec   modules.Spec

	Bindings      []Binding // one per input port, Spec order
	ParamBindings []ParamBinding

	In  []float32
	Out []float32

	// NaNSeen limits the runtime clamp warning to once per session.
	NaNSeen bool
}

// RoutingMode selects how the output bus is driven.
type RoutingMode int

const (
	// RouteNone plays silence; no write to out was present.
	RouteNone RoutingMode = iota
	// RouteMono duplicates one source to both channels.
	RouteMono
	// RouteStereo drives left and right independently.
	RouteStereo
	// RouteLeftOnly normalises the left signal to the right channel.
	RouteLeftOnly
)

// Tap reads one output port with an affine transform applied.
type Tap struct {
	Valid  bool
	Src    int
	Port   int
	Scale  float32
	Offset float32
}

// Routing is the resolved output binding.
type Routing struct {
	Mode RoutingMode
	L    Tap
	R    Tap
}

// Patch is the immutable compiled artifact the engine executes.
type Patch struct {
	ID         string
	SampleRate int
	Instances  []*Instance
	Order      []int // topological permutation of Instances
	Routing    Routing
	Index      map[string]int // instance name -> index
}

// Lookup returns the instance with the given name.
func (p *Patch) Lookup(name string) (*Instance, bool) {
	i, ok := p.Index[name]
	if !ok {
		return nil, false
	}
	return p.Instances[i], true
}
