package modules

import "math"

// Filter is a state-variable filter with simultaneous lowpass, highpass and
// bandpass outputs, parameterised by g = tan(pi*cutoff/sr) and k = 2 - 2*res.
type Filter struct {
	cutoff float64
	res    float64
	ic1    float64
	ic2    float64
	sr     float64
}

func newFilter(cfg Config) *Filter {
	return &Filter{
		cutoff: float64(cfg.arg(0, 1000)),
		res:    float64(cfg.arg(1, 0.5)),
		sr:     float64(cfg.SampleRate),
	}
}

func (f *Filter) Spec() Spec {
	return Spec{
		Type: "filter",
		Inputs: []Port{
			{Name: "audio", Kind: KindAudio},
			{Name: "cutoff", Kind: KindCV, Param: "cutoff"},
			{Name: "res", Kind: KindCV, Param: "res"},
		},
		Outputs: []Port{
			{Name: "lp", Kind: KindAudio},
			{Name: "hp", Kind: KindAudio},
			{Name: "bp", Kind: KindAudio},
		},
		Params: []Param{
			{Name: "cutoff", Default: float32(f.cutoff)},
			{Name: "res", Default: float32(f.res)},
		},
		DefaultIn:  "audio",
		DefaultOut: "lp",
	}
}

func (f *Filter) Process(in, out []float32) {
	fc := clamp(float64(in[1]), 20, f.sr/2-100)
	k := 2 - 2*clamp(float64(in[2]), 0, 1)
	g := math.Tan(math.Pi * fc / f.sr)

	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v0 := float64(in[0])
	v3 := v0 - f.ic2
	v1 := a1*f.ic1 + a2*v3
	v2 := f.ic2 + a2*f.ic1 + a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	out[0] = float32(v2)             // lp
	out[1] = float32(v0 - k*v1 - v2) // hp
	out[2] = float32(v1)             // bp
}

func (f *Filter) SetParam(name string, value float32) error {
	switch name {
	case "cutoff":
		f.cutoff = float64(value)
		return nil
	case "res", "resonance":
		f.res = float64(value)
		return nil
	}
	return unknownParam("filter", name)
}

func (f *Filter) Param(name string) (float32, bool) {
	switch name {
	case "cutoff":
		return float32(f.cutoff), true
	case "res", "resonance":
		return float32(f.res), true
	}
	return 0, false
}
