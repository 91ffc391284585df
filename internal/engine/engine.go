// Package engine owns the live patch and renders it from the audio driver's
// pull callback. Control commands arrive over a single-producer queue and are
// drained at frame boundaries; the callback itself never allocates, locks or
// blocks.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zimdsp/zimdsp/internal/graph"
	"github.com/zimdsp/zimdsp/internal/log"
)

// DefaultSampleRate is used when the driver does not dictate one.
const DefaultSampleRate = 44100

type op int

const (
	opStart op = iota
	opStop
	opLoadPatch
	opSetParam
	opPressGate
	opReleaseGate
)

type command struct {
	op     op
	patch  *graph.Patch
	module string
	param  string
	value  float32
}

// Engine drives a compiled patch sample by sample. The audio context calls
// Process; everything else is the control context.
type Engine struct {
	sampleRate int
	cmds       chan command
	logger     *logrus.Logger

	// Control-side view of the published patch, for command validation.
	mu        sync.Mutex
	ctrlPatch *graph.Patch

	// Audio-side state, touched only inside Process.
	cur     *graph.Patch
	running bool
}

// New creates an engine rendering at the given sample rate.
func New(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Engine{
		sampleRate: sampleRate,
		cmds:       make(chan command, 256),
		logger:     log.GetLogger(),
	}
}

// SampleRate returns the engine's fixed sample rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

var errQueueFull = errors.New("engine command queue full")

func (e *Engine) submit(c command) error {
	select {
	case e.cmds <- c:
		return nil
	default:
		return errQueueFull
	}
}

// Start begins rendering the published patch.
func (e *Engine) Start() error { return e.submit(command{op: opStart}) }

// Stop silences the output; the patch and its state are retained.
func (e *Engine) Stop() error { return e.submit(command{op: opStop}) }

// LoadPatch publishes a compiled patch. The swap is applied between frames;
// the previous patch is dropped on the audio side and reclaimed by the
// collector once the swap lands.
func (e *Engine) LoadPatch(p *graph.Patch) error {
	if p == nil {
		return errors.New("nil patch")
	}
	if p.SampleRate != e.sampleRate {
		return fmt.Errorf("patch compiled at %d Hz, engine runs at %d Hz", p.SampleRate, e.sampleRate)
	}
	if err := e.submit(command{op: opLoadPatch, patch: p}); err != nil {
		return err
	}
	e.mu.Lock()
	e.ctrlPatch = p
	e.mu.Unlock()
	e.logger.WithFields(logrus.Fields{
		"patch":   p.ID,
		"modules": len(p.Instances),
	}).Debug("patch published")
	return nil
}

// SetParam adjusts a module parameter between frames. Unknown targets are
// rejected at submission time.
func (e *Engine) SetParam(module, param string, value float32) error {
	inst, err := e.lookup(module)
	if err != nil {
		return err
	}
	if !inst.Spec.HasParam(param) {
		return fmt.Errorf("module %q has no parameter %q", module, param)
	}
	return e.submit(command{op: opSetParam, module: module, param: param, value: value})
}

// PressGate raises the gate of a manual module.
func (e *Engine) PressGate(module string) error {
	if err := e.checkManual(module); err != nil {
		return err
	}
	return e.submit(command{op: opPressGate, module: module})
}

// ReleaseGate lowers the gate of a manual module.
func (e *Engine) ReleaseGate(module string) error {
	if err := e.checkManual(module); err != nil {
		return err
	}
	return e.submit(command{op: opReleaseGate, module: module})
}

func (e *Engine) lookup(module string) (*graph.Instance, error) {
	e.mu.Lock()
	p := e.ctrlPatch
	e.mu.Unlock()
	if p == nil {
		return nil, errors.New("no patch loaded")
	}
	inst, ok := p.Lookup(module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", module)
	}
	return inst, nil
}

func (e *Engine) checkManual(module string) error {
	inst, err := e.lookup(module)
	if err != nil {
		return err
	}
	if inst.Type != "manual" {
		return fmt.Errorf("module %q is %s, not manual", module, inst.Type)
	}
	return nil
}

// ManualGates returns the names of all manual modules in the published
// patch, in declaration order.
func (e *Engine) ManualGates() []string {
	e.mu.Lock()
	p := e.ctrlPatch
	e.mu.Unlock()
	if p == nil {
		return nil
	}
	var names []string
	for _, inst := range p.Instances {
		if inst.Type == "manual" {
			names = append(names, inst.Name)
		}
	}
	return names
}

// Process fills an interleaved stereo buffer. This is the pull callback the
// audio driver invokes; len(dst) must be a multiple of 2.
func (e *Engine) Process(dst []float32) {
	e.drain()
	if !e.running || e.cur == nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = e.step()
	}
}

func (e *Engine) drain() {
	for {
		select {
		case c := <-e.cmds:
			e.apply(c)
		default:
			return
		}
	}
}

func (e *Engine) apply(c command) {
	switch c.op {
	case opStart:
		e.running = true
	case opStop:
		e.running = false
	case opLoadPatch:
		e.cur = c.patch
	case opSetParam:
		e.setModuleParam(c.module, c.param, c.value)
	case opPressGate:
		e.setModuleParam(c.module, "gate", 1)
	case opReleaseGate:
		e.setModuleParam(c.module, "gate", 0)
	}
}

func (e *Engine) setModuleParam(module, param string, value float32) {
	if e.cur == nil {
		return
	}
	inst, ok := e.cur.Lookup(module)
	if !ok {
		return
	}
	if err := inst.Module.SetParam(param, value); err != nil {
		e.logger.WithFields(logrus.Fields{
			"module": module,
			"param":  param,
		}).Debug("set param rejected: ", err)
	}
}

// step evaluates one frame: modules in topological order, then the output
// routing.
func (e *Engine) step() (float32, float32) {
	p := e.cur
	for _, idx := range p.Order {
		inst := p.Instances[idx]
		for j := range inst.Bindings {
			b := &inst.Bindings[j]
			switch b.Kind {
			case graph.BindConst:
				inst.In[j] = b.Const
			case graph.BindParam:
				v, _ := inst.Module.Param(b.ParamName)
				inst.In[j] = v
			case graph.BindConn:
				var sum float32
				for _, c := range b.Conns {
					sum += p.Instances[c.Src].Out[c.Port]*c.Scale + c.Offset
				}
				inst.In[j] = sum
			}
		}
		for _, pb := range inst.ParamBindings {
			c := pb.Conn
			v := p.Instances[c.Src].Out[c.Port]*c.Scale + c.Offset
			inst.Module.SetParam(pb.Name, v)
		}
		inst.Module.Process(inst.In, inst.Out)
		for j, v := range inst.Out {
			if badSample(v) {
				inst.Out[j] = 0
				if !inst.NaNSeen {
					inst.NaNSeen = true
					e.logger.WithFields(logrus.Fields{
						"patch":  p.ID,
						"module": inst.Name,
						"port":   inst.Spec.Outputs[j].Name,
					}).Warn("non-finite sample clamped to 0")
				}
			}
		}
	}

	r := p.Routing
	l, rr := readTap(p, r.L), readTap(p, r.R)
	if r.Mode == graph.RouteLeftOnly {
		rr = l
	}
	return l, rr
}

func readTap(p *graph.Patch, t graph.Tap) float32 {
	if !t.Valid {
		return 0
	}
	return p.Instances[t.Src].Out[t.Port]*t.Scale + t.Offset
}

func badSample(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
