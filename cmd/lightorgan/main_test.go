package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurningKarl/LightOrgan/config"
)

func TestConfigPath(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "a.yaml"}, "a.yaml"},
		{"long", []string{"--config", "b.yaml"}, "b.yaml"},
		{"long equals", []string{"--config=c.yaml"}, "c.yaml"},
		{"short equals", []string{"-c=d.yaml"}, "d.yaml"},
		{"after other flags", []string{"-l", "12", "-c", "e.yaml"}, "e.yaml"},
		{"absent", []string{"-l", "12"}, ""},
		{"dangling", []string{"-c"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := configPath(tc.args); got != tc.want {
				t.Errorf("configPath(%v) = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightorgan.yaml")
	raw := "led_count: 30\nsample_rate: 48000\n"

	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewZeroConfig()
	if doFlags(&cfg, []string{"-c", path, "-l", "12"}) {
		t.Fatal("plain flags were treated as a subcommand")
	}

	// The explicit flag beats the file.
	if cfg.LEDCount != 12 {
		t.Errorf("led count is %d, want 12 from the command line", cfg.LEDCount)
	}

	// Keys the command line left alone still come from the file.
	if cfg.SampleRate != 48000 {
		t.Errorf("sample rate is %v, want 48000 from the file", cfg.SampleRate)
	}
}
