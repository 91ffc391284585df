package modules

import (
	"math"
	"testing"
)

func TestMixerSumsWithLevels(t *testing.T) {
	m, err := New("mixer", Config{SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}
	mix := m.(*Mixer)
	// in1..in4 then level1..level4.
	in := []float32{1, 2, 3, 4, 1, 0.5, 0, 0.25}
	out := make([]float32, 1)
	mix.Process(in, out)
	want := 1*1 + 2*0.5 + 3*0 + 4*0.25
	if math.Abs(float64(out[0])-float64(want)) > 1e-6 {
		t.Errorf("mix: got %g, want %g", out[0], want)
	}
}

func TestMixerChannelCountRange(t *testing.T) {
	if _, err := New("mixer", Config{Args: []float32{1}, SampleRate: testRate}); err == nil {
		t.Error("mixer with 1 channel should be rejected")
	}
	if _, err := New("mixer", Config{Args: []float32{9}, SampleRate: testRate}); err == nil {
		t.Error("mixer with 9 channels should be rejected")
	}
}

func TestStereoMixEqualPowerPan(t *testing.T) {
	m, err := New("stereomix", Config{Args: []float32{1}, SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}
	sm := m.(*StereoMix)
	out := make([]float32, 2)
	for pan := float32(-1); pan <= 1; pan += 0.05 {
		// in1, pan1, level1
		sm.Process([]float32{1, pan, 1}, out)
		power := float64(out[0])*float64(out[0]) + float64(out[1])*float64(out[1])
		if math.Abs(power-1) > 1e-6 {
			t.Fatalf("pan %g: l^2+r^2 = %g, want 1", pan, power)
		}
	}
}

func TestStereoMixPanExtremes(t *testing.T) {
	m, _ := New("stereomix", Config{Args: []float32{1}, SampleRate: testRate})
	sm := m.(*StereoMix)
	out := make([]float32, 2)

	sm.Process([]float32{1, -1, 1}, out)
	if math.Abs(float64(out[0])-1) > 1e-6 || math.Abs(float64(out[1])) > 1e-6 {
		t.Errorf("hard left: got (%g, %g)", out[0], out[1])
	}
	sm.Process([]float32{1, 1, 1}, out)
	if math.Abs(float64(out[0])) > 1e-6 || math.Abs(float64(out[1])-1) > 1e-6 {
		t.Errorf("hard right: got (%g, %g)", out[0], out[1])
	}
}

func TestStereoMixSumsStrips(t *testing.T) {
	m, err := New("stereomix", Config{Args: []float32{2}, SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}
	sm := m.(*StereoMix)
	out := make([]float32, 2)
	// in1=1 hard left, in2=1 hard right, unity levels.
	sm.Process([]float32{1, 1, -1, 1, 1, 1}, out)
	if math.Abs(float64(out[0])-1) > 1e-6 || math.Abs(float64(out[1])-1) > 1e-6 {
		t.Errorf("two strips: got (%g, %g), want (1, 1)", out[0], out[1])
	}
}
