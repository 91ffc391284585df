package modules

import "testing"

func TestClockDivPassesEveryNthEdge(t *testing.T) {
	m, err := New("clockdiv", Config{Args: []float32{2}, SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}
	c := m.(*ClockDiv)
	out := make([]float32, 1)
	pulse := func() []float32 {
		var got []float32
		for i := 0; i < 3; i++ {
			c.Process([]float32{1}, out)
			got = append(got, out[0])
		}
		for i := 0; i < 3; i++ {
			c.Process([]float32{0}, out)
			got = append(got, out[0])
		}
		return got
	}

	first := pulse()
	for i, v := range first {
		if v != 0 {
			t.Fatalf("first pulse leaked at %d: %g", i, v)
		}
	}
	second := pulse()
	want := []float32{1, 1, 1, 0, 0, 0}
	for i := range want {
		if second[i] != want[i] {
			t.Fatalf("second pulse: got %v, want %v", second, want)
		}
	}
}

func TestClockDivOutputWidthMirrorsInput(t *testing.T) {
	m, _ := New("clockdiv", Config{Args: []float32{1}, SampleRate: testRate})
	c := m.(*ClockDiv)
	out := make([]float32, 1)
	input := []float32{0, 1, 1, 1, 1, 0, 0, 1, 0}
	for i, v := range input {
		c.Process([]float32{v}, out)
		if out[0] != v {
			t.Fatalf("divide-by-1 at %d: got %g, want %g", i, out[0], v)
		}
	}
}

func TestClockDivEdgeCount(t *testing.T) {
	m, _ := New("clockdiv", Config{Args: []float32{1}, SampleRate: testRate})
	c := m.(*ClockDiv)
	input := []float32{0, 1, 0, 0.6, 0.2, 0.5, 0.4, 1, 1, 0}
	wantEdges := 0
	prev := float32(0)
	for _, v := range input {
		if prev < 0.5 && v >= 0.5 {
			wantEdges++
		}
		prev = v
	}
	out := make([]float32, 1)
	gotEdges := 0
	var last float32
	for _, v := range input {
		c.Process([]float32{v}, out)
		if last < 0.5 && out[0] >= 0.5 {
			gotEdges++
		}
		last = out[0]
	}
	if gotEdges != wantEdges {
		t.Errorf("divide-by-1 emitted %d edges, want %d", gotEdges, wantEdges)
	}
}

func TestSwitchAdvancesOnClock(t *testing.T) {
	m, err := New("switch", Config{Args: []float32{3}, SampleRate: testRate})
	if err != nil {
		t.Fatal(err)
	}
	s := m.(*Switch)
	out := make([]float32, 2)
	// inputs: clock, in1=10, in2=20, in3=30
	step := func(clock float32) float32 {
		s.Process([]float32{clock, 10, 20, 30}, out)
		return out[0]
	}
	if got := step(0); got != 10 {
		t.Fatalf("initial selection: got %g, want in1", got)
	}
	if got := step(1); got != 20 {
		t.Fatalf("after edge 1: got %g, want in2", got)
	}
	step(0)
	if got := step(1); got != 30 {
		t.Fatalf("after edge 2: got %g, want in3", got)
	}
	step(0)
	if got := step(1); got != 10 {
		t.Fatalf("after edge 3: got %g, want wrap to in1", got)
	}
}

func TestSwitchPassesClockThrough(t *testing.T) {
	m, _ := New("switch", Config{Args: []float32{2}, SampleRate: testRate})
	s := m.(*Switch)
	out := make([]float32, 2)
	for _, v := range []float32{0, 1, 0.3, 0.8} {
		s.Process([]float32{v, 0, 0}, out)
		if out[1] != v {
			t.Fatalf("gate passthrough: got %g, want %g", out[1], v)
		}
	}
}
