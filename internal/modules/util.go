package modules

import "fmt"

// SampleHold latches its signal input on each rising gate edge.
type SampleHold struct {
	held float32
	edge riseDetector
}

func newSampleHold() *SampleHold {
	return &SampleHold{}
}

func (s *SampleHold) Spec() Spec {
	return Spec{
		Type: "samplehold",
		Inputs: []Port{
			{Name: "signal", Kind: KindCV},
			{Name: "gate", Kind: KindGate},
		},
		Outputs: []Port{
			{Name: "out", Kind: KindCV},
		},
		DefaultIn:  "signal",
		DefaultOut: "out",
	}
}

func (s *SampleHold) Process(in, out []float32) {
	if s.edge.rising(in[1]) {
		s.held = in[0]
	}
	out[0] = s.held
}

func (s *SampleHold) SetParam(name string, value float32) error {
	return unknownParam("samplehold", name)
}

func (s *SampleHold) Param(name string) (float32, bool) {
	return 0, false
}

// Mult fans one input out to K identical copies.
type Mult struct {
	k int
}

func newMult(cfg Config) (*Mult, error) {
	k, err := channelCount(cfg, 4, 2, 8)
	if err != nil {
		return nil, err
	}
	return &Mult{k: k}, nil
}

func (m *Mult) Spec() Spec {
	outputs := make([]Port, m.k)
	for i := range outputs {
		outputs[i] = Port{Name: fmt.Sprintf("out%d", i+1), Kind: KindCV}
	}
	return Spec{
		Type: "mult",
		Inputs: []Port{
			{Name: "input", Kind: KindCV},
		},
		Outputs:    outputs,
		DefaultIn:  "input",
		DefaultOut: "out1",
	}
}

func (m *Mult) Process(in, out []float32) {
	for i := range out {
		out[i] = in[0]
	}
}

func (m *Mult) SetParam(name string, value float32) error {
	return unknownParam("mult", name)
}

func (m *Mult) Param(name string) (float32, bool) {
	return 0, false
}

// Manual is a gate driven from outside the graph: the engine's PressGate and
// ReleaseGate commands flip its level between frames.
type Manual struct {
	on bool
}

func newManual() *Manual {
	return &Manual{}
}

func (m *Manual) Spec() Spec {
	return Spec{
		Type:   "manual",
		Inputs: nil,
		Outputs: []Port{
			{Name: "gate", Kind: KindGate},
		},
		Params:     []Param{{Name: "gate"}},
		DefaultOut: "gate",
	}
}

func (m *Manual) Process(in, out []float32) {
	if m.on {
		out[0] = 1
	} else {
		out[0] = 0
	}
}

func (m *Manual) SetParam(name string, value float32) error {
	switch name {
	case "gate":
		m.on = value >= gateThreshold
		return nil
	}
	return unknownParam("manual", name)
}

func (m *Manual) Param(name string) (float32, bool) {
	switch name {
	case "gate":
		if m.on {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
