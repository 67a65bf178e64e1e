// Package lightorgan wires the audio-to-light pipeline together: a capture
// backend feeds sample blocks through windowing, a fourier transform, band
// extraction and color mapping, and the resulting pixel frames stream to the
// process that owns the LED strip.
package lightorgan

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/config"
	"github.com/BurningKarl/LightOrgan/dsp"
	"github.com/BurningKarl/LightOrgan/dsp/window"
	"github.com/BurningKarl/LightOrgan/input"
	"github.com/BurningKarl/LightOrgan/led"
	"github.com/BurningKarl/LightOrgan/led/term"
	"github.com/BurningKarl/LightOrgan/pipeline"
	"github.com/BurningKarl/LightOrgan/wire"
)

// Run builds the pipeline from cfg and runs it until an interrupt arrives or
// the output sink goes away. The configuration must already be sanitized.
func Run(cfg *config.Config) error {

	// INPUT SETUP

	backendName := cfg.Backend
	if backendName == "" {
		backendName = input.DefaultBackend()
	}

	backend, err := input.InitBackend(backendName)
	if err != nil {
		return err
	}
	defer backend.Close()

	sessConfig := input.SessionConfig{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize(),
	}

	if sessConfig.Device, err = input.GetDevice(backend, cfg.Device); err != nil {
		return err
	}

	// ANALYSIS SETUP

	windower, err := window.Lookup(cfg.Window)
	if err != nil {
		return err
	}

	analyzer := dsp.NewAnalyzer(dsp.AnalyzerConfig{
		SampleRate: cfg.SampleRate,
		SampleSize: cfg.SampleSize,
		LoCutFreq:  cfg.LoCutFreq,
		HiCutFreq:  cfg.HiCutFreq,
		BandCount:  cfg.BandCount,
		Decay:      cfg.Decay,
	})

	mapper, err := led.NewMapper(cfg.Visualizer, cfg.LEDCount, cfg.BandCount)
	if err != nil {
		return err
	}

	// OUTPUT SETUP

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var output pipeline.Output = wire.NewEncoder(os.Stdout)

	if cfg.Preview {
		preview := term.NewPreview()
		if err := preview.Init(); err != nil {
			return err
		}
		defer preview.Close()

		ctx = preview.Start(ctx)
		defer preview.Stop()

		output = preview
	}

	pipe := pipeline.New(pipeline.Config{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize(),
		SampleSize: cfg.SampleSize,
		Windower:   windower,
		Analyzer:   analyzer,
		Mapper:     mapper,
		LEDCount:   cfg.LEDCount,
		Output:     output,
		Backend:    backend,
		Session:    sessConfig,
		Threaded:   cfg.Threaded,
		Verbose:    cfg.Verbose,
	})

	return pipe.Run(ctx)
}

// Decode reads wire frames from r and renders them on the terminal preview.
// It is the unprivileged stand-in for the process that drives the hardware.
func Decode(r io.Reader, ledCount int) error {
	// Tell whatever feeds us that we are about to consume.
	if err := wire.Announce(os.Stdout); err != nil {
		return errors.Wrap(err, "failed to announce readiness")
	}

	preview := term.NewPreview()
	if err := preview.Init(); err != nil {
		return err
	}
	defer preview.Close()

	ctx := preview.Start(context.Background())
	defer preview.Stop()

	decoder := wire.NewDecoder(r, ledCount)
	frame := led.MakeFrame(ledCount)

	for ctx.Err() == nil {
		err := decoder.Read(frame)

		switch {
		case err == nil:

		case errors.Is(err, wire.ErrMalformedFrame):
			// Skip the bad line; never apply half a frame.
			continue

		case errors.Is(err, io.EOF):
			return nil

		default:
			return err
		}

		if err := preview.Write(frame); err != nil {
			return err
		}
	}

	return nil
}
