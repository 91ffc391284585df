package zimdsp

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinePatch = `
vco: osc sine 440
out <- vco.sine
`

func TestRenderSamples(t *testing.T) {
	samples, err := RenderSamples(sinePatch, 44100, 0.1)
	require.NoError(t, err)
	require.Len(t, samples, 4410*2)

	assert.Zero(t, samples[0])
	want := math.Sin(2 * math.Pi * 440 * 10 / 44100)
	assert.InDelta(t, want, samples[20], 1e-4)
	for i := 0; i < len(samples); i += 2 {
		require.Equal(t, samples[i], samples[i+1], "frame %d", i/2)
	}
}

func TestRenderSamplesCompileError(t *testing.T) {
	_, err := RenderSamples("vco: warble\n", 44100, 0.1)
	assert.Error(t, err)
}

func TestRenderWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	require.NoError(t, RenderWAVFile(path, sinePatch, 44100, 0.05))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	assert.EqualValues(t, 44100, dec.SampleRate)
	assert.EqualValues(t, 2, dec.NumChans)
	assert.EqualValues(t, 16, dec.BitDepth)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Len(t, buf.Data, 2205*2)
}

func TestCompileReportsStructuredErrors(t *testing.T) {
	_, err := Compile("a: vca 1\nb: vca 1\na.audio <- b.out\nb.audio <- a.out\n", 44100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
