package modules

import "math"

// Oscillator serves both the osc and lfo types. All waveforms are computed
// from a single phase accumulator; consumers pick the output they want. The
// lfo variant adds a unipolar gate (high for the first half of each cycle)
// and a 0→1 ramp, which is how sub-audio triggers are generated in patches.
type Oscillator struct {
	lfo      bool
	freq     float64
	phase    float64
	sr       float64
	waveform string
	sync     riseDetector
}

func newOscillator(lfo bool, cfg Config) *Oscillator {
	def := 440.0
	if lfo {
		def = 1.0
	}
	wf := cfg.Waveform
	if wf == "" {
		wf = "sine"
	}
	return &Oscillator{
		lfo:      lfo,
		freq:     float64(cfg.arg(0, float32(def))),
		sr:       float64(cfg.SampleRate),
		waveform: wf,
	}
}

func (o *Oscillator) Spec() Spec {
	typ := "osc"
	defOut := o.waveform
	outputs := []Port{
		{Name: "sine", Kind: KindAudio},
		{Name: "saw", Kind: KindAudio},
		{Name: "square", Kind: KindAudio},
		{Name: "triangle", Kind: KindAudio},
	}
	if o.lfo {
		typ = "lfo"
		outputs = append(outputs,
			Port{Name: "gate", Kind: KindGate},
			Port{Name: "ramp", Kind: KindCV},
		)
	}
	return Spec{
		Type: typ,
		Inputs: []Port{
			{Name: "freq", Kind: KindCV, Param: "freq"},
			{Name: "sync", Kind: KindGate},
		},
		Outputs:    outputs,
		Params:     []Param{{Name: "freq", Default: float32(o.freq)}},
		DefaultIn:  "freq",
		DefaultOut: defOut,
	}
}

func (o *Oscillator) Process(in, out []float32) {
	if o.sync.rising(in[1]) {
		o.phase = 0
	}
	p := o.phase
	out[0] = float32(math.Sin(2 * math.Pi * p))
	out[1] = float32(2*p - 1)
	if p < 0.5 {
		out[2] = 1
	} else {
		out[2] = -1
	}
	out[3] = float32(4*math.Abs(p-0.5) - 1)
	if o.lfo {
		if p < 0.5 {
			out[4] = 1
		} else {
			out[4] = 0
		}
		out[5] = float32(p)
	}
	o.phase += float64(in[0]) / o.sr
	o.phase -= math.Floor(o.phase)
}

func (o *Oscillator) SetParam(name string, value float32) error {
	switch name {
	case "freq", "frequency":
		o.freq = float64(value)
		return nil
	}
	return unknownParam(o.Spec().Type, name)
}

func (o *Oscillator) Param(name string) (float32, bool) {
	switch name {
	case "freq", "frequency":
		return float32(o.freq), true
	}
	return 0, false
}
