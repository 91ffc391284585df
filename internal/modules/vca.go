package modules

// Vca multiplies audio by a control voltage and its gain parameter. With
// nothing patched into cv the input reads 1, so an unmodulated VCA is a
// plain attenuator at gain; with cv bound the gain still scales the result.
type Vca struct {
	gain float64
}

func newVca(cfg Config) *Vca {
	return &Vca{gain: float64(cfg.arg(0, 1))}
}

func (v *Vca) Spec() Spec {
	return Spec{
		Type: "vca",
		Inputs: []Port{
			{Name: "audio", Kind: KindAudio},
			{Name: "cv", Kind: KindCV, Default: 1},
		},
		Outputs: []Port{
			{Name: "out", Kind: KindAudio},
		},
		Params:     []Param{{Name: "gain", Default: float32(v.gain)}},
		DefaultIn:  "audio",
		DefaultOut: "out",
	}
}

func (v *Vca) Process(in, out []float32) {
	out[0] = in[0] * in[1] * float32(v.gain)
}

func (v *Vca) SetParam(name string, value float32) error {
	switch name {
	case "gain":
		v.gain = float64(value)
		return nil
	}
	return unknownParam("vca", name)
}

func (v *Vca) Param(name string) (float32, bool) {
	switch name {
	case "gain":
		return float32(v.gain), true
	}
	return 0, false
}
