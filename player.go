// Package zimdsp is a text-driven modular synthesizer: patches written in a
// small line-oriented language compile to a typed module graph that a
// real-time engine renders sample by sample to stereo output.
package zimdsp

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/zimdsp/zimdsp/internal/audio"
	"github.com/zimdsp/zimdsp/internal/engine"
	"github.com/zimdsp/zimdsp/internal/graph"
	"github.com/zimdsp/zimdsp/internal/patch"
)

// PlayerOption configures a Player.
type PlayerOption func(*playerConfig)

type playerConfig struct {
	bufferSize int
}

// WithBufferSize sets the per-callback frame count of the audio stream.
func WithBufferSize(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferSize = frames
	}
}

// Player couples the engine to the default audio device and exposes the
// control surface the shell needs: load, start, stop, gates, parameters.
type Player struct {
	mu         sync.Mutex
	engine     *engine.Engine
	stream     *audio.Stream
	sampleRate int
	bufferSize int
}

// NewPlayer creates a player rendering at the given sample rate.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := playerConfig{bufferSize: audio.DefaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		engine:     engine.New(sampleRate),
		sampleRate: sampleRate,
		bufferSize: cfg.bufferSize,
	}, nil
}

// Compile parses and builds patch text without touching the engine.
func Compile(text string, sampleRate int) (*graph.Patch, error) {
	cmds, err := patch.Parse(text)
	if err != nil {
		return nil, err
	}
	return graph.Build(cmds, sampleRate)
}

// LoadPatch compiles patch text and publishes it to the engine. On a compile
// error the running patch, if any, stays intact.
func (p *Player) LoadPatch(text string) error {
	compiled, err := Compile(text, p.sampleRate)
	if err != nil {
		return err
	}
	return p.engine.LoadPatch(compiled)
}

// LoadPatchFile reads and loads a .zim patch file.
func (p *Player) LoadPatchFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := p.LoadPatch(string(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Start opens the audio device on first use and begins rendering.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		stream, err := audio.Open(p.engine, p.sampleRate, p.bufferSize)
		if err != nil {
			return err
		}
		p.stream = stream
	}
	return p.engine.Start()
}

// Stop silences the output. The device stays open and the patch keeps its
// state, so Start resumes where playback left off.
func (p *Player) Stop() error {
	return p.engine.Stop()
}

// Close stops the engine and releases the audio device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.engine.Stop(); err != nil {
		return err
	}
	if p.stream != nil {
		err := p.stream.Close()
		p.stream = nil
		return err
	}
	return nil
}

// SetParam adjusts a module parameter on the running patch.
func (p *Player) SetParam(module, param string, value float32) error {
	return p.engine.SetParam(module, param, value)
}

// PressGate raises a manual module's gate. An empty name presses every
// manual gate in the patch.
func (p *Player) PressGate(module string) error {
	return p.eachManual(module, p.engine.PressGate)
}

// ReleaseGate lowers a manual module's gate. An empty name releases every
// manual gate in the patch.
func (p *Player) ReleaseGate(module string) error {
	return p.eachManual(module, p.engine.ReleaseGate)
}

func (p *Player) eachManual(module string, f func(string) error) error {
	if module != "" {
		return f(module)
	}
	names := p.engine.ManualGates()
	if len(names) == 0 {
		return errors.New("patch has no manual gates")
	}
	for _, name := range names {
		if err := f(name); err != nil {
			return err
		}
	}
	return nil
}
