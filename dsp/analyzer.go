// Package dsp turns windowed audio frames into per-band light intensities.
//
// Some notes:
//
// https://dlbeer.co.nz/articles/fftvis.html
// https://wikipedia.org/wiki/Equal-loudness_contour
package dsp

import "math"

// MaxIntensity is the upper bound of the intensity range. Everything the
// analyzer emits lies in [0, MaxIntensity].
const MaxIntensity = 255.0

// refFloor is the smallest usable normalization reference. Below it the
// reference is degenerate and the band reads zero.
const refFloor = 1e-9

// BinMethod combines the magnitudes of the fft bins inside one band.
type BinMethod func(count int, current, new float64) float64

// AverageSamples averages all the magnitudes together.
func AverageSamples() BinMethod {
	return func(count int, current, new float64) float64 {
		return current + (new / float64(count))
	}
}

// SumSamples sums all the magnitudes together.
func SumSamples() BinMethod {
	return func(_ int, current, new float64) float64 {
		return current + new
	}
}

// MaxSampleValue keeps the maximum magnitude.
func MaxSampleValue() BinMethod {
	return func(_ int, current, new float64) float64 {
		return math.Max(current, new)
	}
}

type AnalyzerConfig struct {
	SampleRate float64   // audio sample rate
	SampleSize int       // transform size
	LoCutFreq  float64   // low edge of the analyzed range
	HiCutFreq  float64   // high edge of the analyzed range
	BandCount  int       // number of log-spaced bands
	Decay      float64   // per-frame normalization reference decay, in (0, 1)
	BinMethod  BinMethod // method used for combining bin magnitudes
}

type Analyzer interface {
	BandCount() int
	BandEdges() []float64
	// Process fills bands with one intensity in [0, MaxIntensity] per band,
	// computed from the spectrum of one analysis frame.
	Process(spectrum []complex128, bands []float64)
}

type analyzer struct {
	cfg     AnalyzerConfig
	bands   []bandBin
	edges   []float64
	fftSize int
}

// bandBin maps one band onto a half-open range of fft bins and carries its
// adaptive normalization reference.
type bandBin struct {
	floorFFT int
	ceilFFT  int
	ref      float64
}

func NewAnalyzer(cfg AnalyzerConfig) Analyzer {
	if cfg.BinMethod == nil {
		cfg.BinMethod = AverageSamples()
	}

	az := &analyzer{
		cfg:     cfg,
		bands:   make([]bandBin, cfg.BandCount),
		edges:   make([]float64, cfg.BandCount+1),
		fftSize: cfg.SampleSize/2 + 1,
	}

	az.distribute()

	return az
}

// BandCount returns the number of bands per processed frame.
func (az *analyzer) BandCount() int {
	return az.cfg.BandCount
}

// BandEdges returns the dividing frequencies, BandCount+1 of them.
func (az *analyzer) BandEdges() []float64 {
	return az.edges
}

// distribute spaces the band edges at equal ratios between the cutoffs, so
// that equal pitch intervals take equal visual spans, and maps each band to
// the fft bins whose center frequency falls inside it.
func (az *analyzer) distribute() {
	loLog := math.Log10(az.cfg.LoCutFreq)
	hiLog := math.Log10(math.Min(az.cfg.HiCutFreq, az.cfg.SampleRate/2))

	cF := (hiLog - loLog) / float64(az.cfg.BandCount)

	for idx := range az.edges {
		az.edges[idx] = math.Pow(10.0, loLog+float64(idx)*cF)
	}

	for idx := range az.bands {
		az.bands[idx].floorFFT = az.freqToIdx(az.edges[idx], math.Ceil)
		az.bands[idx].ceilFFT = az.freqToIdx(az.edges[idx+1], math.Ceil)

		// Narrow bands can collapse to zero bins at small transform sizes.
		// Give every band at least one, without overlapping its neighbor.
		if idx > 0 && az.bands[idx].floorFFT <= az.bands[idx-1].floorFFT {
			az.bands[idx].floorFFT = az.bands[idx-1].floorFFT + 1
			az.bands[idx-1].ceilFFT = az.bands[idx].floorFFT
		}
		if az.bands[idx].ceilFFT <= az.bands[idx].floorFFT {
			az.bands[idx].ceilFFT = az.bands[idx].floorFFT + 1
		}
	}
}

func (az *analyzer) Process(spectrum []complex128, bands []float64) {
	for idx := range az.bands {
		bin := &az.bands[idx]

		fftFloor, fftCeil := bin.floorFFT, bin.ceilFFT
		if fftCeil > len(spectrum) {
			fftCeil = len(spectrum)
		}
		if fftFloor >= fftCeil {
			bands[idx] = 0.0
			continue
		}

		src := spectrum[fftFloor:fftCeil]
		raw := 0.0
		for _, cmplx := range src {
			power := math.Hypot(real(cmplx), imag(cmplx))
			raw = az.cfg.BinMethod(len(src), raw, power)
		}

		if math.IsNaN(raw) || raw < 0.0 {
			raw = 0.0
		}

		// The reference tracks the recent per-band peak and decays
		// geometrically, so a single loud transient cannot desensitize the
		// band forever and quiet passages still span the intensity range.
		bin.ref *= az.cfg.Decay
		if raw > bin.ref {
			bin.ref = raw
		}

		// raw is stashed so the second pass can rescale once the global
		// reference for this frame is known.
		bands[idx] = raw
	}

	// A band normalized purely against itself would turn spectral leakage
	// into full brightness. Gate each band against the loudest band's
	// reference so near-silent bands stay dark.
	globalRef := 0.0
	for idx := range az.bands {
		if az.bands[idx].ref > globalRef {
			globalRef = az.bands[idx].ref
		}
	}
	gate := globalRef / 128.0

	for idx := range az.bands {
		raw := bands[idx]
		ref := math.Max(az.bands[idx].ref, gate)

		if ref < refFloor || raw <= 0.0 {
			bands[idx] = 0.0
			continue
		}

		bands[idx] = math.Min(MaxIntensity, (raw/ref)*MaxIntensity)
	}
}

type mathFunc func(float64) float64

func (az *analyzer) freqToIdx(freq float64, round mathFunc) int {
	b := int(round(freq / (az.cfg.SampleRate / float64(az.cfg.SampleSize))))

	if b < az.fftSize {
		return b
	}

	return az.fftSize - 1
}
