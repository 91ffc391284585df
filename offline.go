package zimdsp

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/zimdsp/zimdsp/internal/engine"
)

// RenderSamples compiles patch text and renders the given duration offline,
// returning interleaved stereo samples.
func RenderSamples(patchText string, sampleRate int, seconds float64) ([]float32, error) {
	compiled, err := Compile(patchText, sampleRate)
	if err != nil {
		return nil, err
	}
	eng := engine.New(sampleRate)
	if err := eng.LoadPatch(compiled); err != nil {
		return nil, err
	}
	if err := eng.Start(); err != nil {
		return nil, err
	}
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	eng.Process(out)
	return out, nil
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = v
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// RenderWAVFile renders a patch offline straight into a WAV file.
func RenderWAVFile(path, patchText string, sampleRate int, seconds float64) error {
	samples, err := RenderSamples(patchText, sampleRate, seconds)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
