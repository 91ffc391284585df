package modules

import (
	"fmt"
	"math"
)

// Mixer sums N mono inputs with per-channel levels. Its signal inputs accept
// multiple connections; this is the one place the graph sums for you.
type Mixer struct {
	n      int
	levels []float64
}

func newMixer(cfg Config) (*Mixer, error) {
	n, err := channelCount(cfg, 4, 2, 8)
	if err != nil {
		return nil, err
	}
	m := &Mixer{n: n, levels: make([]float64, n)}
	for i := range m.levels {
		m.levels[i] = 1
	}
	return m, nil
}

func (m *Mixer) Spec() Spec {
	inputs := make([]Port, 0, 2*m.n)
	params := make([]Param, 0, m.n)
	for i := 1; i <= m.n; i++ {
		inputs = append(inputs, Port{
			Name:    fmt.Sprintf("in%d", i),
			Kind:    KindAudio,
			Summing: true,
		})
	}
	for i := 1; i <= m.n; i++ {
		name := fmt.Sprintf("level%d", i)
		inputs = append(inputs, Port{Name: name, Kind: KindCV, Default: 1, Param: name})
		params = append(params, Param{Name: name, Default: float32(m.levels[i-1])})
	}
	return Spec{
		Type:       "mixer",
		Inputs:     inputs,
		Outputs:    []Port{{Name: "out", Kind: KindAudio}},
		Params:     params,
		DefaultIn:  "in1",
		DefaultOut: "out",
	}
}

func (m *Mixer) Process(in, out []float32) {
	var sum float64
	for i := 0; i < m.n; i++ {
		sum += float64(in[i]) * float64(in[m.n+i])
	}
	out[0] = float32(sum)
}

func (m *Mixer) SetParam(name string, value float32) error {
	if i, ok := channelParam(name, "level", m.n); ok {
		m.levels[i] = float64(value)
		return nil
	}
	return unknownParam("mixer", name)
}

func (m *Mixer) Param(name string) (float32, bool) {
	if i, ok := channelParam(name, "level", m.n); ok {
		return float32(m.levels[i]), true
	}
	return 0, false
}

// channelParam parses names like "level3" into a zero-based channel index.
func channelParam(name, prefix string, n int) (int, bool) {
	if len(name) != len(prefix)+1 {
		return 0, false
	}
	if name[:len(prefix)] != prefix {
		return 0, false
	}
	c := name[len(prefix)]
	if c < '1' || c > '8' {
		return 0, false
	}
	i := int(c - '1')
	if i >= n {
		return 0, false
	}
	return i, true
}

// StereoMix pans N mono strips into a stereo pair with equal-power panning.
type StereoMix struct {
	n      int
	pans   []float64
	levels []float64
}

func newStereoMix(cfg Config) (*StereoMix, error) {
	n, err := channelCount(cfg, 4, 1, 8)
	if err != nil {
		return nil, err
	}
	s := &StereoMix{n: n, pans: make([]float64, n), levels: make([]float64, n)}
	for i := range s.levels {
		s.levels[i] = 1
	}
	return s, nil
}

func (s *StereoMix) Spec() Spec {
	inputs := make([]Port, 0, 3*s.n)
	params := make([]Param, 0, 2*s.n)
	for i := 1; i <= s.n; i++ {
		inputs = append(inputs, Port{
			Name:    fmt.Sprintf("in%d", i),
			Kind:    KindAudio,
			Summing: true,
		})
	}
	for i := 1; i <= s.n; i++ {
		pan := fmt.Sprintf("pan%d", i)
		level := fmt.Sprintf("level%d", i)
		inputs = append(inputs,
			Port{Name: pan, Kind: KindCV, Param: pan},
			Port{Name: level, Kind: KindCV, Default: 1, Param: level},
		)
		params = append(params,
			Param{Name: pan, Default: float32(s.pans[i-1])},
			Param{Name: level, Default: float32(s.levels[i-1])},
		)
	}
	return Spec{
		Type:   "stereomix",
		Inputs: inputs,
		Outputs: []Port{
			{Name: "left", Kind: KindAudio},
			{Name: "right", Kind: KindAudio},
		},
		Params:     params,
		DefaultIn:  "in1",
		DefaultOut: "left",
	}
}

func (s *StereoMix) Process(in, out []float32) {
	var left, right float64
	for i := 0; i < s.n; i++ {
		sig := float64(in[i])
		pan := clamp(float64(in[s.n+2*i]), -1, 1)
		level := float64(in[s.n+2*i+1])
		a := (pan + 1) * math.Pi / 4
		left += sig * level * math.Cos(a)
		right += sig * level * math.Sin(a)
	}
	out[0] = float32(left)
	out[1] = float32(right)
}

func (s *StereoMix) SetParam(name string, value float32) error {
	if i, ok := channelParam(name, "pan", s.n); ok {
		s.pans[i] = float64(value)
		return nil
	}
	if i, ok := channelParam(name, "level", s.n); ok {
		s.levels[i] = float64(value)
		return nil
	}
	return unknownParam("stereomix", name)
}

func (s *StereoMix) Param(name string) (float32, bool) {
	if i, ok := channelParam(name, "pan", s.n); ok {
		return float32(s.pans[i]), true
	}
	if i, ok := channelParam(name, "level", s.n); ok {
		return float32(s.levels[i]), true
	}
	return 0, false
}
