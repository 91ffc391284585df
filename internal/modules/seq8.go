package modules

import "fmt"

// Seq8 is an eight-step CV/gate sequencer. A rising clock edge advances the
// step index modulo length; a rising reset edge forces the next clock edge to
// re-enter step 1. The gate output is high for the first gate_length of each
// step whose enable is set, with the step duration estimated from the spacing
// of the last two clock edges.
type Seq8 struct {
	steps      [8]float64
	gates      [8]float64
	length     int
	gateLength float64

	idx          int
	started      bool
	pendingReset bool

	clock riseDetector
	reset riseDetector

	sinceEdge  int
	lastPeriod int
}

func newSeq8(cfg Config) *Seq8 {
	s := &Seq8{length: 8, gateLength: 0.5}
	for i := range s.gates {
		s.gates[i] = 1
	}
	return s
}

func (s *Seq8) Spec() Spec {
	params := make([]Param, 0, 18)
	for i := 1; i <= 8; i++ {
		params = append(params, Param{Name: fmt.Sprintf("step%d", i), Default: float32(s.steps[i-1])})
	}
	for i := 1; i <= 8; i++ {
		params = append(params, Param{Name: fmt.Sprintf("gate%d", i), Default: float32(s.gates[i-1])})
	}
	params = append(params,
		Param{Name: "length", Default: float32(s.length)},
		Param{Name: "gate_length", Default: float32(s.gateLength)},
	)
	return Spec{
		Type: "seq8",
		Inputs: []Port{
			{Name: "clock", Kind: KindGate},
			{Name: "reset", Kind: KindGate},
		},
		Outputs: []Port{
			{Name: "cv", Kind: KindCV},
			{Name: "gate", Kind: KindGate},
		},
		Params:     params,
		DefaultIn:  "clock",
		DefaultOut: "cv",
	}
}

func (s *Seq8) Process(in, out []float32) {
	if s.reset.rising(in[1]) {
		s.idx = 0
		s.pendingReset = true
	}
	if s.clock.rising(in[0]) {
		if s.started && !s.pendingReset {
			s.idx = (s.idx + 1) % s.length
		} else {
			s.idx = 0
		}
		s.started = true
		s.pendingReset = false
		if s.sinceEdge > 0 {
			s.lastPeriod = s.sinceEdge
		}
		s.sinceEdge = 0
	}

	out[0] = float32(s.steps[s.idx])

	enabled := s.gates[s.idx] >= gateThreshold
	var gate bool
	if !s.started || !enabled {
		gate = false
	} else if s.lastPeriod > 0 {
		gate = float64(s.sinceEdge) < s.gateLength*float64(s.lastPeriod)
	} else {
		// No period estimate yet: mirror the clock's own pulse width.
		gate = high(in[0])
	}
	if gate {
		out[1] = 1
	} else {
		out[1] = 0
	}
	s.sinceEdge++
}

func (s *Seq8) SetParam(name string, value float32) error {
	if i, ok := channelParam(name, "step", 8); ok {
		s.steps[i] = float64(value)
		return nil
	}
	if i, ok := channelParam(name, "gate", 8); ok {
		s.gates[i] = float64(value)
		return nil
	}
	switch name {
	case "length":
		n := int(value)
		if n < 1 || n > 8 {
			return fmt.Errorf("seq8 length %d out of range [1, 8]", n)
		}
		s.length = n
		return nil
	case "gate_length":
		if value <= 0 || value > 1 {
			return fmt.Errorf("seq8 gate_length %g out of range (0, 1]", value)
		}
		s.gateLength = float64(value)
		return nil
	}
	return unknownParam("seq8", name)
}

func (s *Seq8) Param(name string) (float32, bool) {
	if i, ok := channelParam(name, "step", 8); ok {
		return float32(s.steps[i]), true
	}
	if i, ok := channelParam(name, "gate", 8); ok {
		return float32(s.gates[i]), true
	}
	switch name {
	case "length":
		return float32(s.length), true
	case "gate_length":
		return float32(s.gateLength), true
	}
	return 0, false
}
