package modules

import "math"

// Envelope shape constants for attack_shape and decay_shape.
const (
	ShapeLinear      = 0
	ShapeExponential = 1
	ShapeLogarithmic = 2
)

// Envelope is an attack-decay generator. A rising edge on gate restarts the
// attack regardless of the current stage; a falling edge is ignored.
type Envelope struct {
	attack      float64
	decay       float64
	attackShape int
	decayShape  int
	elapsed     float64
	active      bool
	dt          float64
	edge        riseDetector
}

func newEnvelope(cfg Config) *Envelope {
	return &Envelope{
		attack: float64(cfg.arg(0, 0.01)),
		decay:  float64(cfg.arg(1, 0.1)),
		dt:     1 / float64(cfg.SampleRate),
	}
}

func (e *Envelope) Spec() Spec {
	return Spec{
		Type: "envelope",
		Inputs: []Port{
			{Name: "gate", Kind: KindGate},
		},
		Outputs: []Port{
			{Name: "out", Kind: KindCV},
		},
		Params: []Param{
			{Name: "attack", Default: float32(e.attack)},
			{Name: "decay", Default: float32(e.decay)},
			{Name: "attack_shape", Default: ShapeLinear},
			{Name: "decay_shape", Default: ShapeLinear},
		},
		DefaultIn:  "gate",
		DefaultOut: "out",
	}
}

// envCurve maps linear progress in [0,1] through the selected shape.
func envCurve(p float64, shape int) float64 {
	p = clamp(p, 0, 1)
	switch shape {
	case ShapeExponential:
		return p * p
	case ShapeLogarithmic:
		return math.Sqrt(p)
	}
	return p
}

func (e *Envelope) Process(in, out []float32) {
	if e.edge.rising(in[0]) {
		e.active = true
		e.elapsed = 0
	}
	var v float64
	if e.active {
		switch {
		case e.elapsed < e.attack:
			v = envCurve(e.elapsed/e.attack, e.attackShape)
		case e.elapsed < e.attack+e.decay:
			v = envCurve(1-(e.elapsed-e.attack)/e.decay, e.decayShape)
		default:
			e.active = false
		}
	}
	out[0] = float32(v)
	if e.active {
		e.elapsed += e.dt
	}
}

func (e *Envelope) SetParam(name string, value float32) error {
	switch name {
	case "attack":
		e.attack = float64(value)
		return nil
	case "decay":
		e.decay = float64(value)
		return nil
	case "attack_shape":
		e.attackShape = shapeValue(value)
		return nil
	case "decay_shape":
		e.decayShape = shapeValue(value)
		return nil
	}
	return unknownParam("envelope", name)
}

func shapeValue(v float32) int {
	s := int(v)
	if s < ShapeLinear || s > ShapeLogarithmic {
		return ShapeLinear
	}
	return s
}

func (e *Envelope) Param(name string) (float32, bool) {
	switch name {
	case "attack":
		return float32(e.attack), true
	case "decay":
		return float32(e.decay), true
	case "attack_shape":
		return float32(e.attackShape), true
	case "decay_shape":
		return float32(e.decayShape), true
	}
	return 0, false
}
