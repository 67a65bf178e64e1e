// Package config holds the static pipeline configuration. It is validated
// once at startup; the pipeline never mutates it.
package config

import (
	"math/bits"

	"github.com/pkg/errors"
)

type Config struct {
	// Backend is the capture backend name from list-backends.
	Backend string `yaml:"backend"`
	// Device is the device name from list-devices.
	Device string `yaml:"device"`
	// SampleRate is the rate at which samples are read.
	SampleRate float64 `yaml:"sample_rate"`
	// SampleSize is the analysis frame size. Must be a power of two.
	SampleSize int `yaml:"sample_size"`
	// UpdateRate is how many times per second new audio is pulled from the
	// device. The capture block size is derived from it.
	UpdateRate float64 `yaml:"update_rate"`
	// LEDCount is the number of LEDs on the strip.
	LEDCount int `yaml:"led_count"`
	// BandCount is the number of log-spaced frequency bands.
	BandCount int `yaml:"band_count"`
	// LoCutFreq is the low end of the analyzed spectrum.
	LoCutFreq float64 `yaml:"lo_cut_freq"`
	// HiCutFreq is the high end of the analyzed spectrum.
	HiCutFreq float64 `yaml:"hi_cut_freq"`
	// Decay is the per-frame decay of the normalization reference.
	Decay float64 `yaml:"decay"`
	// Visualizer selects the color mapping strategy.
	Visualizer string `yaml:"visualizer"`
	// Window selects the analysis window function.
	Window string `yaml:"window"`
	// Threaded decouples capture and analysis with a bounded queue.
	Threaded bool `yaml:"threaded"`
	// Preview renders to the terminal instead of writing wire frames.
	Preview bool `yaml:"preview"`
	// Verbose enables the periodic utilization report.
	Verbose bool `yaml:"verbose"`
}

// NewZeroConfig returns the default configuration. The band count, cutoffs
// and decay are reasonable defaults, not calibrated constants.
func NewZeroConfig() Config {
	return Config{
		SampleRate: 44100,
		SampleSize: 2048,
		UpdateRate: 60,
		LEDCount:   9,
		BandCount:  9,
		LoCutFreq:  250,
		HiCutFreq:  4000,
		Decay:      0.985,
		Visualizer: "rainbow",
		Window:     "hann",
	}
}

// BlockSize is the number of samples per capture block, derived from the
// sample and update rates.
func (cfg *Config) BlockSize() int {
	return int(cfg.SampleRate / cfg.UpdateRate)
}

// Sanitize validates the configuration. It fails fast; an invalid value is
// an operator error, not something to limp along with.
func (cfg *Config) Sanitize() error {
	if cfg.LEDCount < 1 {
		return errors.New("led count must be at least 1")
	}

	if cfg.BandCount < 1 {
		return errors.New("band count must be at least 1")
	}

	if cfg.SampleSize < 4 {
		return errors.New("sample size too small (4+ required)")
	}

	if bits.OnesCount(uint(cfg.SampleSize)) != 1 {
		return errors.New("sample size must be a power of two")
	}

	if cfg.SampleRate < float64(cfg.SampleSize) {
		return errors.New("sample rate lower than sample size")
	}

	if cfg.UpdateRate <= 0 {
		return errors.New("update rate must be positive")
	}

	if cfg.BlockSize() < 1 {
		return errors.New("update rate too high for the sample rate")
	}

	if cfg.BlockSize() > cfg.SampleSize {
		return errors.New("update rate too low: capture block exceeds the analysis frame")
	}

	if cfg.LoCutFreq <= 0 {
		return errors.New("low cutoff must be positive")
	}

	if cfg.LoCutFreq >= cfg.HiCutFreq {
		return errors.New("low cutoff must be below the high cutoff")
	}

	if cfg.HiCutFreq > cfg.SampleRate/2 {
		return errors.New("high cutoff above the Nyquist frequency")
	}

	if cfg.Decay <= 0 || cfg.Decay >= 1 {
		return errors.New("decay must be in (0, 1)")
	}

	return nil
}
