package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/integrii/flaggy"

	lightorgan "github.com/BurningKarl/LightOrgan"
	"github.com/BurningKarl/LightOrgan/config"
	"github.com/BurningKarl/LightOrgan/input"
	"github.com/BurningKarl/LightOrgan/led"

	_ "github.com/BurningKarl/LightOrgan/input/all"
)

// AppName is the app name
const AppName = "lightorgan"

// AppDesc is the app description
const AppDesc = "streams per-LED colors for whatever sound is playing"

// AppSite is the app website
const AppSite = "https://github.com/BurningKarl/LightOrgan"

var version = "unknown"

func main() {
	log.SetFlags(0)

	cfg := config.NewZeroConfig()

	if doFlags(&cfg, os.Args[1:]) {
		return
	}

	chk(cfg.Sanitize(), "invalid config")

	chk(lightorgan.Run(&cfg), "failed to run lightorgan")
}

func doFlags(cfg *config.Config, args []string) bool {

	// The file loads before the flags parse, so a flag given explicitly on
	// the command line always beats the file.
	if path := configPath(args); path != "" {
		chk(config.FromFile(path, cfg), "failed to load config file")
	}

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:        "list-backends",
		ShortName:   "lb",
		Description: "list all supported capture backends",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:        "list-devices",
		ShortName:   "ld",
		Description: "list all devices for a backend",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	decodeCmd := flaggy.Subcommand{
		Name:        "decode",
		ShortName:   "dec",
		Description: "read wire frames from stdin and preview them in the terminal",
	}

	parser.AttachSubcommand(&decodeCmd, 1)

	var configFile string

	parser.String(&configFile, "c", "config", "YAML config file (explicit flags take precedence)")
	parser.String(&cfg.Backend, "b", "backend", "backend name")
	parser.String(&cfg.Device, "d", "device", "device name")
	parser.Float64(&cfg.SampleRate, "r", "rate", "sample rate")
	parser.Int(&cfg.SampleSize, "n", "samples", "analysis frame size (power of two)")
	parser.Float64(&cfg.UpdateRate, "f", "fps", "updates per second")
	parser.Int(&cfg.LEDCount, "l", "leds", "number of LEDs on the strip")
	parser.Int(&cfg.BandCount, "bc", "bands", "number of frequency bands")
	parser.Float64(&cfg.LoCutFreq, "lo", "low", "low frequency cutoff (Hz)")
	parser.Float64(&cfg.HiCutFreq, "hi", "high", "high frequency cutoff (Hz)")
	parser.Float64(&cfg.Decay, "dc", "decay", "normalization reference decay (0-1)")
	parser.String(&cfg.Visualizer, "vz", "visualizer",
		"visualizer name ("+strings.Join(led.MapperNames(), ", ")+")")
	parser.String(&cfg.Window, "w", "window", "window function (hann, hamming, bartlett, rectangle)")
	parser.Bool(&cfg.Threaded, "t", "threaded", "decouple capture and analysis")
	parser.Bool(&cfg.Preview, "p", "preview", "render to the terminal instead of stdout")
	parser.Bool(&cfg.Verbose, "vb", "verbose", "periodic utilization report on stderr")

	chk(parser.ParseArgs(args), "failed to parse arguments")

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true

	case listDevicesCmd.Used:
		backendName := cfg.Backend
		if backendName == "" {
			backendName = input.DefaultBackend()
		}

		backend, err := input.InitBackend(backendName)
		chk(err, "failed to init backend")

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", backendName)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return true

	case decodeCmd.Used:
		chk(lightorgan.Decode(os.Stdin, cfg.LEDCount), "failed to decode frames")

		return true
	}

	return false
}

// configPath finds the config file argument ahead of the real parse.
func configPath(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-c="):
			return strings.TrimPrefix(arg, "-c=")
		}
	}
	return ""
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
