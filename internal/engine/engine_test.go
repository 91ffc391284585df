package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zimdsp/zimdsp/internal/graph"
	"github.com/zimdsp/zimdsp/internal/patch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testRate = 44100

func compile(t *testing.T, text string) *graph.Patch {
	t.Helper()
	cmds, err := patch.Parse(text)
	require.NoError(t, err)
	p, err := graph.Build(cmds, testRate)
	require.NoError(t, err)
	return p
}

func startEngine(t *testing.T, text string) *Engine {
	t.Helper()
	e := New(testRate)
	require.NoError(t, e.LoadPatch(compile(t, text)))
	require.NoError(t, e.Start())
	return e
}

func render(e *Engine, frames int) []float32 {
	buf := make([]float32, frames*2)
	e.Process(buf)
	return buf
}

func TestSineToMonoOut(t *testing.T) {
	e := startEngine(t, `
vco: osc sine 440
out <- vco.sine
`)
	buf := render(e, 100)

	assert.Zero(t, buf[0], "left[0]")
	want := math.Sin(2 * math.Pi * 440 * 10 / testRate)
	assert.InDelta(t, want, buf[20], 1e-4, "left[10]")
	for i := 0; i < 100; i++ {
		require.Equal(t, buf[2*i], buf[2*i+1], "frame %d: right must mirror left", i)
	}
}

func TestLeftOnlyNormalisesToRight(t *testing.T) {
	e := startEngine(t, `
vco: osc saw 220
out.left <- vco.saw
`)
	buf := render(e, 256)
	for i := 0; i < 256; i++ {
		require.Equal(t, buf[2*i], buf[2*i+1], "frame %d", i)
	}
	var energy float64
	for _, v := range buf {
		energy += math.Abs(float64(v))
	}
	assert.NotZero(t, energy)
}

func TestStoppedEngineIsSilent(t *testing.T) {
	e := New(testRate)
	require.NoError(t, e.LoadPatch(compile(t, "vco: osc sine 440\nout <- vco.sine\n")))
	buf := render(e, 64)
	for _, v := range buf {
		require.Zero(t, v)
	}

	require.NoError(t, e.Start())
	buf = render(e, 64)
	var energy float64
	for _, v := range buf {
		energy += math.Abs(float64(v))
	}
	assert.NotZero(t, energy)

	require.NoError(t, e.Stop())
	buf = render(e, 64)
	for _, v := range buf {
		require.Zero(t, v)
	}
}

func TestLfoGatedEnvelope(t *testing.T) {
	e := startEngine(t, `
clock: lfo 2
env: envelope 0.01 0.1
vco: osc sine 440
amp: vca 1.0
env.gate <- clock.gate
amp.audio <- vco.sine
amp.cv <- env.out
out <- amp.out
`)
	buf := render(e, testRate) // one second

	// The 2 Hz clock fires the envelope at t=0 and t=0.5; each cycle is done
	// 0.11 s after its trigger, so the output is silent in between.
	quiet := func(fromSec, toSec float64) {
		from, to := int(fromSec*testRate), int(toSec*testRate)
		for i := from; i < to; i++ {
			require.LessOrEqual(t, math.Abs(float64(buf[2*i])), 1e-6, "frame %d", i)
		}
	}
	loud := func(atSec float64) {
		i := int(atSec * testRate)
		var peak float64
		for j := i; j < i+600; j++ {
			peak = math.Max(peak, math.Abs(float64(buf[2*j])))
		}
		assert.Greater(t, peak, 0.1, "expected envelope energy near t=%g", atSec)
	}
	loud(0.005)
	quiet(0.15, 0.49)
	loud(0.505)
	quiet(0.65, 0.99)
}

func TestManualGateSingleCycle(t *testing.T) {
	e := startEngine(t, `
g: manual
env: envelope 0.01 0.05
env.gate <- g.gate
out <- env.out
`)
	require.NoError(t, e.PressGate("g"))
	first := render(e, testRate/20) // 50 ms
	require.NoError(t, e.ReleaseGate("g"))
	rest := render(e, testRate/2)

	var peak float64
	for i := 0; i < len(first); i += 2 {
		peak = math.Max(peak, float64(first[i]))
	}
	assert.InDelta(t, 1, peak, 1e-4, "attack must reach full scale")

	// After attack+decay (60 ms) the envelope stays at zero: exactly one
	// attack-decay cycle for one press/release pair.
	for i := len(rest) / 2; i < len(rest); i += 2 {
		require.Zero(t, rest[i], "tail frame %d", i/2)
	}
}

func TestManualGateValidation(t *testing.T) {
	e := startEngine(t, `
g: manual
vco: osc sine 440
out <- vco.sine
`)
	assert.Error(t, e.PressGate("nosuch"))
	assert.Error(t, e.PressGate("vco"))
	assert.NoError(t, e.PressGate("g"))
	assert.Equal(t, []string{"g"}, e.ManualGates())
}

func TestDeterministicRender(t *testing.T) {
	text := `
src: noise
f: filter 800 0.3
f.audio <- src.pink
sh: samplehold
sh.signal <- src.white
clock: lfo 8
sh.gate <- clock.gate
amp: vca 1
amp.audio <- f.lp
amp.cv <- sh.out
out <- amp.out
`
	a := startEngine(t, text)
	b := startEngine(t, text)
	bufA := render(a, 4096)
	bufB := render(b, 4096)
	require.Equal(t, bufA, bufB, "same patch text must render bit-identically")
}

func TestSetParamReachesModule(t *testing.T) {
	e := startEngine(t, `
vco: osc sine 440
out <- vco.sine
`)
	render(e, 16)
	require.NoError(t, e.SetParam("vco", "freq", 880))
	render(e, 16)

	inst, ok := compilePatch(e)
	require.True(t, ok)
	v, _ := inst.Module.Param("freq")
	assert.InDelta(t, 880, v, 1e-6)

	assert.Error(t, e.SetParam("vco", "nosuch", 1))
	assert.Error(t, e.SetParam("nosuch", "freq", 1))
}

// compilePatch digs the vco instance out of the engine's current patch.
func compilePatch(e *Engine) (*graph.Instance, bool) {
	if e.cur == nil {
		return nil, false
	}
	return e.cur.Lookup("vco")
}

func TestNonFiniteOutputClamped(t *testing.T) {
	e := startEngine(t, `
vco: osc sine 440
out <- vco.sine
`)
	require.NoError(t, e.SetParam("vco", "freq", float32(math.NaN())))
	buf := render(e, 256)
	for i, v := range buf {
		require.False(t, math.IsNaN(float64(v)), "frame %d leaked NaN", i)
		require.Zero(t, v, "clamped output must be 0")
	}
}

func TestLoadPatchSampleRateMismatch(t *testing.T) {
	e := New(48000)
	p := compile(t, "vco: osc\nout <- vco.sine\n")
	assert.Error(t, e.LoadPatch(p))
}

func TestPatchSwapPreservesCommandOrder(t *testing.T) {
	e := startEngine(t, `
vco: osc sine 440
out <- vco.sine
`)
	render(e, 16)
	// Publish a replacement patch, then set a parameter on it; both commands
	// land before the next frame, in order.
	p2 := compile(t, "g: manual\nenv: envelope 0.01 0.1\nenv.gate <- g.gate\nout <- env.out\n")
	require.NoError(t, e.LoadPatch(p2))
	require.NoError(t, e.PressGate("g"))
	buf := render(e, 1024)
	var peak float64
	for i := 0; i < len(buf); i += 2 {
		peak = math.Max(peak, float64(buf[i]))
	}
	assert.Greater(t, peak, 0.0, "new patch must be live with the gate pressed")
}
