package modules

import (
	"math"
	"testing"
)

func newTestFilter(t *testing.T, cutoff, res float32) *Filter {
	t.Helper()
	m, err := New("filter", Config{Args: []float32{cutoff, res}, SampleRate: testRate})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	return m.(*Filter)
}

// runFilter feeds one input sample with cutoff/res from their params.
func runFilter(f *Filter, in float32) (lp, hp, bp float32) {
	cutoff, _ := f.Param("cutoff")
	res, _ := f.Param("res")
	out := make([]float32, 3)
	f.Process([]float32{in, cutoff, res}, out)
	return out[0], out[1], out[2]
}

func TestFilterLowpassPassesDC(t *testing.T) {
	f := newTestFilter(t, 1000, 0.5)
	var lp float32
	for i := 0; i < 5000; i++ {
		lp, _, _ = runFilter(f, 1)
	}
	if math.Abs(float64(lp)-1) > 1e-3 {
		t.Errorf("lp settles at %g for DC input, want 1", lp)
	}
}

func TestFilterHighpassBlocksDC(t *testing.T) {
	f := newTestFilter(t, 1000, 0.5)
	var hp float32
	for i := 0; i < 5000; i++ {
		_, hp, _ = runFilter(f, 1)
	}
	if math.Abs(float64(hp)) > 1e-3 {
		t.Errorf("hp settles at %g for DC input, want 0", hp)
	}
}

func TestFilterLowpassAttenuatesAboveCutoff(t *testing.T) {
	f := newTestFilter(t, 200, 0)
	// 8 kHz tone through a 200 Hz lowpass.
	var inPeak, outPeak float64
	for i := 0; i < testRate; i++ {
		in := float32(math.Sin(2 * math.Pi * 8000 * float64(i) / testRate))
		lp, _, _ := runFilter(f, in)
		if i > testRate/2 {
			inPeak = math.Max(inPeak, math.Abs(float64(in)))
			outPeak = math.Max(outPeak, math.Abs(float64(lp)))
		}
	}
	if outPeak > inPeak*0.05 {
		t.Errorf("lp peak %g for 8 kHz tone, want heavy attenuation", outPeak)
	}
}

func TestFilterCutoffClamped(t *testing.T) {
	f := newTestFilter(t, 1e9, 0.5)
	// A wildly out-of-range cutoff must still produce finite output.
	for i := 0; i < 1000; i++ {
		lp, hp, bp := runFilter(f, float32(math.Sin(float64(i))))
		for _, v := range []float32{lp, hp, bp} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite output at sample %d", i)
			}
		}
	}
}
