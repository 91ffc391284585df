package modules

import "fmt"

// ClockDiv passes every Nth rising edge of its clock input through to the
// gate output; the output pulse ends when the input pulse does, so the width
// mirrors the source clock.
type ClockDiv struct {
	n     int
	count int
	open  bool
	edge  riseDetector
}

func newClockDiv(cfg Config) (*ClockDiv, error) {
	n := int(cfg.arg(0, 4))
	if n < 1 {
		return nil, fmt.Errorf("clockdiv division %d out of range, want >= 1", n)
	}
	return &ClockDiv{n: n}, nil
}

func (c *ClockDiv) Spec() Spec {
	return Spec{
		Type: "clockdiv",
		Inputs: []Port{
			{Name: "clock", Kind: KindGate},
		},
		Outputs: []Port{
			{Name: "gate", Kind: KindGate},
		},
		DefaultIn:  "clock",
		DefaultOut: "gate",
	}
}

func (c *ClockDiv) Process(in, out []float32) {
	v := in[0]
	if c.edge.rising(v) {
		c.count++
		if c.count >= c.n {
			c.count = 0
			c.open = true
		}
	}
	if !high(v) {
		c.open = false
	}
	if c.open {
		out[0] = 1
	} else {
		out[0] = 0
	}
}

func (c *ClockDiv) SetParam(name string, value float32) error {
	return unknownParam("clockdiv", name)
}

func (c *ClockDiv) Param(name string) (float32, bool) {
	return 0, false
}

// Switch is a sequential switch: each rising clock edge advances which input
// reaches the output. The clock passes through on gate for daisy-chaining.
type Switch struct {
	n    int
	sel  int
	edge riseDetector
}

func newSwitch(cfg Config) (*Switch, error) {
	n, err := channelCount(cfg, 4, 2, 8)
	if err != nil {
		return nil, err
	}
	return &Switch{n: n}, nil
}

func (s *Switch) Spec() Spec {
	inputs := make([]Port, 0, s.n+1)
	inputs = append(inputs, Port{Name: "clock", Kind: KindGate})
	for i := 1; i <= s.n; i++ {
		inputs = append(inputs, Port{Name: fmt.Sprintf("in%d", i), Kind: KindAudio})
	}
	return Spec{
		Type:   "switch",
		Inputs: inputs,
		Outputs: []Port{
			{Name: "out", Kind: KindAudio},
			{Name: "gate", Kind: KindGate},
		},
		DefaultIn:  "clock",
		DefaultOut: "out",
	}
}

func (s *Switch) Process(in, out []float32) {
	if s.edge.rising(in[0]) {
		s.sel = (s.sel + 1) % s.n
	}
	out[0] = in[1+s.sel]
	out[1] = in[0]
}

func (s *Switch) SetParam(name string, value float32) error {
	return unknownParam("switch", name)
}

func (s *Switch) Param(name string) (float32, bool) {
	return 0, false
}
