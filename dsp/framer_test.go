package dsp

import (
	"testing"

	"github.com/BurningKarl/LightOrgan/dsp/window"
)

func TestFramerNotReadyUntilFull(t *testing.T) {
	f := NewFramer(8, window.Rectangle)

	f.Push([]float64{1, 2, 3})
	if f.Ready() {
		t.Fatal("ready after 3 of 8 samples")
	}

	f.Push([]float64{4, 5, 6})
	if f.Ready() {
		t.Fatal("ready after 6 of 8 samples")
	}

	f.Push([]float64{7, 8})
	if !f.Ready() {
		t.Fatal("not ready after 8 of 8 samples")
	}
}

func TestFramerRollsOldestFirst(t *testing.T) {
	f := NewFramer(4, window.Rectangle)

	f.Push([]float64{1, 2, 3, 4})
	f.Push([]float64{5, 6})

	got := make([]float64, 4)
	f.Frame(got)

	want := []float64{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame is %v, want %v", got, want)
		}
	}
}

func TestFramerOversizedPushKeepsTail(t *testing.T) {
	f := NewFramer(4, window.Rectangle)

	f.Push([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})

	got := make([]float64, 4)
	f.Frame(got)

	want := []float64{6, 7, 8, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame is %v, want %v", got, want)
		}
	}
}

func TestFramerDeterministic(t *testing.T) {
	a := NewFramer(16, window.Hann)
	b := NewFramer(16, window.Hann)

	samples := make([]float64, 16)
	for i := range samples {
		samples[i] = float64(i%5) - 2
	}

	a.Push(samples)
	b.Push(samples)

	fa := make([]float64, 16)
	fb := make([]float64, 16)
	a.Frame(fa)
	b.Frame(fb)

	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("frames differ at %d: %v vs %v", i, fa[i], fb[i])
		}
	}

	// Reading a frame must not disturb the buffer.
	fc := make([]float64, 16)
	a.Frame(fc)
	for i := range fa {
		if fa[i] != fc[i] {
			t.Fatalf("second read differs at %d", i)
		}
	}
}
