package modules

import "math"

// Slew limits the rate of change of its input with independent rise and fall
// times. eor emits a one-sample pulse when a rise completes; eoc emits one
// when the input has fallen back to the pre-rise level after an eor. Patching
// eoc back into a gate source is the classic Krell self-cycling trick.
type Slew struct {
	rise float64
	fall float64
	dt   float64

	out     float64
	inRise  bool
	armed   bool
	preRise float64
}

func newSlew(cfg Config) *Slew {
	rise := float64(cfg.arg(0, 0.1))
	return &Slew{
		rise: rise,
		fall: float64(cfg.arg(1, float32(rise))),
		dt:   1 / float64(cfg.SampleRate),
	}
}

func (s *Slew) Spec() Spec {
	return Spec{
		Type: "slew",
		Inputs: []Port{
			{Name: "in", Kind: KindCV},
			{Name: "rise", Kind: KindCV, Param: "rise"},
			{Name: "fall", Kind: KindCV, Param: "fall"},
		},
		Outputs: []Port{
			{Name: "out", Kind: KindCV},
			{Name: "eor", Kind: KindGate},
			{Name: "eoc", Kind: KindGate},
		},
		Params: []Param{
			{Name: "rise", Default: float32(s.rise)},
			{Name: "fall", Default: float32(s.fall)},
		},
		DefaultIn:  "in",
		DefaultOut: "out",
	}
}

func (s *Slew) Process(in, out []float32) {
	target := float64(in[0])
	var eor, eoc float32

	switch {
	case target > s.out:
		if !s.inRise {
			s.inRise = true
			s.preRise = s.out
		}
		s.out = math.Min(s.out+maxStep(s.dt, float64(in[1])), target)
		if s.out == target {
			eor = 1
			s.inRise = false
			s.armed = true
		}
	case target < s.out:
		s.inRise = false
		s.out = math.Max(s.out-maxStep(s.dt, float64(in[2])), target)
	}

	if s.armed && target <= s.preRise {
		eoc = 1
		s.armed = false
	}

	out[0] = float32(s.out)
	out[1] = eor
	out[2] = eoc
}

// maxStep converts a rise/fall time into the largest per-sample change. A
// non-positive time means the output jumps to the target immediately.
func maxStep(dt, time float64) float64 {
	if time <= 0 {
		return math.Inf(1)
	}
	return dt / time
}

func (s *Slew) SetParam(name string, value float32) error {
	switch name {
	case "rise":
		s.rise = float64(value)
		return nil
	case "fall":
		s.fall = float64(value)
		return nil
	}
	return unknownParam("slew", name)
}

func (s *Slew) Param(name string) (float32, bool) {
	switch name {
	case "rise":
		return float32(s.rise), true
	case "fall":
		return float32(s.fall), true
	}
	return 0, false
}
