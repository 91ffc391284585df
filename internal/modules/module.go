// Package modules implements the DSP module library: oscillators, filters,
// envelopes and the other building blocks a patch can instantiate. Every
// module processes one sample at a time on pre-sized scratch slices so that
// the audio thread never allocates.
package modules

import "fmt"

// PortKind classifies the signal a port carries. Audio and CV are numerically
// interchangeable; gate ports read any signal through the rising-edge
// threshold; stereo marks a left/right pair on the output bus.
type PortKind int

const (
	KindAudio PortKind = iota
	KindCV
	KindGate
	KindStereo
)

func (k PortKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindCV:
		return "cv"
	case KindGate:
		return "gate"
	case KindStereo:
		return "stereo"
	}
	return "unknown"
}

// Port describes one input or output.
type Port struct {
	Name    string
	Kind    PortKind
	Default float32
	// Param names the parameter an unbound input falls back to. Empty means
	// the input reads Default when nothing is connected.
	Param string
	// Summing marks inputs that accept multiple connections and add them.
	Summing bool
}

// Param describes a scalar parameter.
type Param struct {
	Name    string
	Default float32
}

// Spec describes a module's external surface.
type Spec struct {
	Type    string
	Inputs  []Port
	Outputs []Port
	Params  []Param
	// DefaultIn is the input a bare "name <- src" connection resolves to.
	DefaultIn string
	// DefaultOut is the output a bare "sink <- name" reference resolves to.
	DefaultOut string
}

// InputIndex returns the index of the named input port, or -1.
func (s *Spec) InputIndex(name string) int {
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			return i
		}
	}
	return -1
}

// OutputIndex returns the index of the named output port, or -1.
func (s *Spec) OutputIndex(name string) int {
	for i := range s.Outputs {
		if s.Outputs[i].Name == name {
			return i
		}
	}
	return -1
}

// HasParam reports whether the spec declares the named parameter.
func (s *Spec) HasParam(name string) bool {
	for i := range s.Params {
		if s.Params[i].Name == name {
			return true
		}
	}
	return false
}

// Module is the uniform contract every DSP unit implements. Process consumes
// one value per input port and writes one value per output port, in Spec
// order. Implementations keep all state private and never allocate inside
// Process.
type Module interface {
	Spec() Spec
	Process(in, out []float32)
	SetParam(name string, value float32) error
	Param(name string) (float32, bool)
}

// gateThreshold is the level at which a scalar reads as logical high.
const gateThreshold = 0.5

// riseDetector recognises <0.5 → ≥0.5 transitions with one sample of memory.
type riseDetector struct {
	last float32
}

func (d *riseDetector) rising(v float32) bool {
	r := d.last < gateThreshold && v >= gateThreshold
	d.last = v
	return r
}

func high(v float32) bool { return v >= gateThreshold }

var canonicalTypes = map[string]string{
	"osc":          "osc",
	"oscillator":   "osc",
	"lfo":          "lfo",
	"filter":       "filter",
	"vcf":          "filter",
	"envelope":     "envelope",
	"env":          "envelope",
	"vca":          "vca",
	"noise":        "noise",
	"mixer":        "mixer",
	"mix":          "mixer",
	"stereomix":    "stereomix",
	"stereo_mixer": "stereomix",
	"samplehold":   "samplehold",
	"sample_hold":  "samplehold",
	"sh":           "samplehold",
	"seq8":         "seq8",
	"sequencer":    "seq8",
	"slew":         "slew",
	"clockdiv":     "clockdiv",
	"clock_div":    "clockdiv",
	"switch":       "switch",
	"mult":         "mult",
	"multiple":     "mult",
	"manual":       "manual",
	"gate":         "manual",
}

// Canonical resolves a type name or alias to its canonical form.
func Canonical(name string) (string, bool) {
	t, ok := canonicalTypes[name]
	return t, ok
}

// Config carries construction arguments from the patch text.
type Config struct {
	Waveform   string    // osc/lfo only
	Args       []float32 // positional numeric args
	Ordinal    int       // creation order, seeds noise instances
	SampleRate int
}

func (c Config) arg(i int, def float32) float32 {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return def
}

// New constructs a module of the given (canonical or aliased) type.
func New(typeName string, cfg Config) (Module, error) {
	canon, ok := Canonical(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown module type %q", typeName)
	}
	if cfg.Waveform != "" && canon != "osc" && canon != "lfo" {
		return nil, fmt.Errorf("%s takes no waveform argument", canon)
	}
	switch canon {
	case "osc":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newOscillator(false, cfg), nil
	case "lfo":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newOscillator(true, cfg), nil
	case "filter":
		if err := maxArgs(cfg, 2); err != nil {
			return nil, err
		}
		return newFilter(cfg), nil
	case "envelope":
		if err := maxArgs(cfg, 2); err != nil {
			return nil, err
		}
		return newEnvelope(cfg), nil
	case "vca":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newVca(cfg), nil
	case "noise":
		if err := maxArgs(cfg, 0); err != nil {
			return nil, err
		}
		return newNoise(cfg), nil
	case "mixer":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newMixer(cfg)
	case "stereomix":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newStereoMix(cfg)
	case "samplehold":
		if err := maxArgs(cfg, 0); err != nil {
			return nil, err
		}
		return newSampleHold(), nil
	case "seq8":
		if err := maxArgs(cfg, 0); err != nil {
			return nil, err
		}
		return newSeq8(cfg), nil
	case "slew":
		if err := maxArgs(cfg, 2); err != nil {
			return nil, err
		}
		return newSlew(cfg), nil
	case "clockdiv":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newClockDiv(cfg)
	case "switch":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newSwitch(cfg)
	case "mult":
		if err := maxArgs(cfg, 1); err != nil {
			return nil, err
		}
		return newMult(cfg)
	case "manual":
		if err := maxArgs(cfg, 0); err != nil {
			return nil, err
		}
		return newManual(), nil
	}
	return nil, fmt.Errorf("unknown module type %q", typeName)
}

// Describe returns the port and parameter surface of a module type without
// building it into a graph. Used by the REPL's inspect command.
func Describe(typeName string) (Spec, error) {
	m, err := New(typeName, Config{SampleRate: 44100})
	if err != nil {
		return Spec{}, err
	}
	return m.Spec(), nil
}

func maxArgs(cfg Config, n int) error {
	if len(cfg.Args) > n {
		return fmt.Errorf("too many arguments: got %d, at most %d allowed", len(cfg.Args), n)
	}
	return nil
}

func channelCount(cfg Config, def, min, max int) (int, error) {
	n := int(cfg.arg(0, float32(def)))
	if n < min || n > max {
		return 0, fmt.Errorf("channel count %d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}

func unknownParam(typ, name string) error {
	return fmt.Errorf("%s has no parameter %q", typ, name)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
