package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestZeroConfigIsValid(t *testing.T) {
	cfg := NewZeroConfig()
	if err := cfg.Sanitize(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero leds", func(c *Config) { c.LEDCount = 0 }},
		{"zero bands", func(c *Config) { c.BandCount = 0 }},
		{"non power of two fft", func(c *Config) { c.SampleSize = 2000 }},
		{"tiny fft", func(c *Config) { c.SampleSize = 2 }},
		{"rate below size", func(c *Config) { c.SampleRate = 1024 }},
		{"zero update rate", func(c *Config) { c.UpdateRate = 0 }},
		{"block exceeds frame", func(c *Config) { c.UpdateRate = 10 }},
		{"cutoffs inverted", func(c *Config) { c.LoCutFreq = 5000 }},
		{"zero low cutoff", func(c *Config) { c.LoCutFreq = 0 }},
		{"cutoff above nyquist", func(c *Config) { c.HiCutFreq = 30000 }},
		{"decay zero", func(c *Config) { c.Decay = 0 }},
		{"decay one", func(c *Config) { c.Decay = 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewZeroConfig()
			tc.mutate(&cfg)

			if err := cfg.Sanitize(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestBlockSize(t *testing.T) {
	cfg := NewZeroConfig()
	cfg.SampleRate = 44100
	cfg.UpdateRate = 60

	if got := cfg.BlockSize(); got != 735 {
		t.Fatalf("block size is %d, want 735", got)
	}
}

func TestFromFileOverlaysValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightorgan.yaml")
	raw := "led_count: 30\nvisualizer: bands\n"

	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewZeroConfig()
	if err := FromFile(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.LEDCount != 30 {
		t.Errorf("led count is %d, want 30", cfg.LEDCount)
	}
	if cfg.Visualizer != "bands" {
		t.Errorf("visualizer is %q, want bands", cfg.Visualizer)
	}
	// Untouched keys keep their defaults.
	if cfg.SampleRate != 44100 {
		t.Errorf("sample rate changed to %v", cfg.SampleRate)
	}
}

func TestFromFileMissing(t *testing.T) {
	cfg := NewZeroConfig()
	if err := FromFile("/does/not/exist.yaml", &cfg); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
