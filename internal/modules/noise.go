package modules

import (
	"math/bits"
	"math/rand/v2"
)

// Noise produces five spectral colors from one per-instance generator. The
// seed derives from the instance's creation order, so a patch renders the
// same byte stream every run.
type Noise struct {
	rng       *rand.Rand
	rows      [5]float64 // Voss-McCartney octave bands
	counter   uint32
	brown     float64
	prevWhite float64
	prevBlue  float64
}

func newNoise(cfg Config) *Noise {
	seed := uint64(cfg.Ordinal) + 1
	return &Noise{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (n *Noise) Spec() Spec {
	return Spec{
		Type:   "noise",
		Inputs: nil,
		Outputs: []Port{
			{Name: "white", Kind: KindAudio},
			{Name: "pink", Kind: KindAudio},
			{Name: "brown", Kind: KindAudio},
			{Name: "blue", Kind: KindAudio},
			{Name: "violet", Kind: KindAudio},
		},
		DefaultOut: "white",
	}
}

func (n *Noise) Process(in, out []float32) {
	w := n.rng.Float64()*2 - 1

	// Voss-McCartney: one band updates per sample, chosen by the lowest set
	// bit of a running counter.
	n.counter++
	if row := bits.TrailingZeros32(n.counter); row < len(n.rows) {
		n.rows[row] = n.rng.Float64()*2 - 1
	}
	pink := w
	for _, r := range n.rows {
		pink += r
	}
	pink /= 6

	n.brown = clamp(n.brown*0.99+w*0.1, -1, 1)

	// First differences, halved to stay inside the nominal range.
	blue := (w - n.prevWhite) / 2
	violet := (blue - n.prevBlue) / 2
	n.prevWhite = w
	n.prevBlue = blue

	out[0] = float32(w)
	out[1] = float32(pink)
	out[2] = float32(n.brown)
	out[3] = float32(blue)
	out[4] = float32(violet)
}

func (n *Noise) SetParam(name string, value float32) error {
	return unknownParam("noise", name)
}

func (n *Noise) Param(name string) (float32, bool) {
	return 0, false
}
