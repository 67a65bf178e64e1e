package dsp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/BurningKarl/LightOrgan/dsp/window"
)

const (
	testRate = 44100.0
	testSize = 2048
)

func newTestAnalyzer(t *testing.T) Analyzer {
	t.Helper()

	return NewAnalyzer(AnalyzerConfig{
		SampleRate: testRate,
		SampleSize: testSize,
		LoCutFreq:  250,
		HiCutFreq:  4000,
		BandCount:  9,
		Decay:      0.985,
	})
}

// spectrumOf runs one windowed frame of the given tone through the
// transform.
func spectrumOf(freq, amplitude float64) []complex128 {
	buf := make([]float64, testSize)
	for i := range buf {
		buf[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	window.Hann(buf)

	out := make([]complex128, testSize/2+1)
	fourier.NewFFT(testSize).Coefficients(out, buf)

	return out
}

func bandOf(t *testing.T, az Analyzer, freq float64) int {
	t.Helper()

	edges := az.BandEdges()
	for i := 0; i < len(edges)-1; i++ {
		if edges[i] <= freq && freq < edges[i+1] {
			return i
		}
	}

	t.Fatalf("%v Hz outside band edges %v", freq, edges)
	return -1
}

func maxBand(bands []float64) int {
	max := -1.0
	idx := 0
	for i, v := range bands {
		if v > max {
			max = v
			idx = i
		}
	}
	return idx
}

func TestAnalyzerBandEdges(t *testing.T) {
	az := newTestAnalyzer(t)

	edges := az.BandEdges()
	if len(edges) != 10 {
		t.Fatalf("got %d edges, want 10", len(edges))
	}

	if math.Abs(edges[0]-250) > 1e-6 || math.Abs(edges[9]-4000) > 1e-6 {
		t.Errorf("edges span [%v, %v], want [250, 4000]", edges[0], edges[9])
	}

	// Log spacing means a constant ratio between neighbors.
	ratio := edges[1] / edges[0]
	for i := 1; i < len(edges)-1; i++ {
		if r := edges[i+1] / edges[i]; math.Abs(r-ratio) > 1e-6 {
			t.Errorf("edge ratio %d is %v, want %v", i, r, ratio)
		}
	}
}

func TestAnalyzerPureTone(t *testing.T) {
	for _, freq := range []float64{440, 1000, 2000, 3500} {
		az := newTestAnalyzer(t)
		bands := make([]float64, az.BandCount())

		az.Process(spectrumOf(freq, 0.8), bands)

		want := bandOf(t, az, freq)
		if got := maxBand(bands); got != want {
			t.Errorf("%v Hz: loudest band is %d, want %d (bands %v)",
				freq, got, want, bands)
		}
	}
}

func TestAnalyzerToneHitsMiddleBand(t *testing.T) {
	az := newTestAnalyzer(t)
	bands := make([]float64, az.BandCount())

	az.Process(spectrumOf(1000, 0.8), bands)

	got := maxBand(bands)
	if got == 0 || got == len(bands)-1 {
		t.Errorf("1000 Hz landed in band %d of %d, want a middle band",
			got, len(bands))
	}
}

func TestAnalyzerBounds(t *testing.T) {
	az := newTestAnalyzer(t)
	bands := make([]float64, az.BandCount())

	inputs := [][]complex128{
		spectrumOf(1000, 0.8),
		spectrumOf(50, 1.0), // below the low cutoff
		spectrumOf(1000, 1e-12),
		make([]complex128, testSize/2+1), // silence
	}

	for _, spectrum := range inputs {
		az.Process(spectrum, bands)

		for i, v := range bands {
			if math.IsNaN(v) {
				t.Fatalf("band %d is NaN", i)
			}
			if v < 0 || v > MaxIntensity {
				t.Fatalf("band %d is %v, outside [0, %v]", i, v, MaxIntensity)
			}
		}
	}
}

func TestAnalyzerSilenceReadsZero(t *testing.T) {
	az := newTestAnalyzer(t)
	bands := make([]float64, az.BandCount())

	// Loud first, so the references hold real values.
	az.Process(spectrumOf(1000, 0.8), bands)

	silence := make([]complex128, testSize/2+1)
	for frame := 0; frame < 100; frame++ {
		az.Process(silence, bands)

		for i, v := range bands {
			if v != 0 {
				t.Fatalf("frame %d: band %d reads %v on silence, want 0", frame, i, v)
			}
		}
	}
}

func TestAnalyzerRecoversAfterLoudTransient(t *testing.T) {
	az := newTestAnalyzer(t)
	bands := make([]float64, az.BandCount())
	tone := bandOf(t, az, 1000)

	// One very loud frame, then sustained quiet playback.
	az.Process(spectrumOf(1000, 1.0), bands)

	quiet := spectrumOf(1000, 0.01)
	for frame := 0; frame < 600; frame++ {
		az.Process(quiet, bands)
	}

	// After the reference decays the quiet tone should reclaim most of
	// the intensity range.
	if bands[tone] < 200 {
		t.Errorf("tone band stuck at %v after decay, want near %v",
			bands[tone], MaxIntensity)
	}
}

func TestAnalyzerEveryBandHasBins(t *testing.T) {
	az := NewAnalyzer(AnalyzerConfig{
		SampleRate: 44100,
		SampleSize: 256, // coarse bins force the neighbor fix-up
		LoCutFreq:  250,
		HiCutFreq:  4000,
		BandCount:  9,
		Decay:      0.985,
	}).(*analyzer)

	prev := -1
	for i, b := range az.bands {
		if b.ceilFFT <= b.floorFFT {
			t.Errorf("band %d has no bins: [%d, %d)", i, b.floorFFT, b.ceilFFT)
		}
		if b.floorFFT <= prev {
			t.Errorf("band %d overlaps its neighbor", i)
		}
		prev = b.floorFFT
	}
}
