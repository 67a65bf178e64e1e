// Package pipeline runs the audio-to-light loop: capture blocks, window,
// transform, extract bands, map colors, emit frames.
package pipeline

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/dsp"
	"github.com/BurningKarl/LightOrgan/dsp/window"
	"github.com/BurningKarl/LightOrgan/fft"
	"github.com/BurningKarl/LightOrgan/input"
	"github.com/BurningKarl/LightOrgan/led"
)

// Output consumes finished pixel frames. wire.Encoder and the terminal
// preview both implement it.
type Output interface {
	Write(led.Frame) error
}

// State is the lifecycle phase of a pipeline.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// queueDepth bounds the block queue in threaded mode. Deeper queues
	// only add latency; fresher audio beats complete audio.
	queueDepth = 2

	backoffInitial = 250 * time.Millisecond
	backoffMax     = 5 * time.Second

	// reportInterval is how often the verbose utilization report logs.
	reportInterval = 5 * time.Second
)

// DefaultMaxRetries is how often a failed capture device is reopened before
// the pipeline gives up.
const DefaultMaxRetries = 6

type Config struct {
	SampleRate float64         // capture sample rate
	BlockSize  int             // samples per capture block
	SampleSize int             // samples per analysis frame
	Windower   window.Function // applied to every analysis frame
	Analyzer   dsp.Analyzer    // bands from spectra
	Mapper     led.Mapper      // colors from bands
	LEDCount   int             // pixels per frame
	Output     Output          // frame sink

	Backend input.Backend       // capture backend, already initialized
	Session input.SessionConfig // what the backend should capture

	// Threaded decouples capture from analysis with a bounded queue that
	// drops the oldest block when full. Without it the blocking device
	// read paces the whole loop.
	Threaded bool

	// MaxRetries overrides DefaultMaxRetries when positive.
	MaxRetries int

	// Verbose enables the periodic utilization report.
	Verbose bool
}

// Metrics is a snapshot of the pipeline counters.
type Metrics struct {
	Frames    uint64 // pixel frames emitted
	Underruns uint64 // sample blocks lost or dropped
	Reopens   uint64 // capture device reopen attempts
}

type Pipeline struct {
	cfg Config

	state atomic.Int32

	frames    atomic.Uint64
	underruns atomic.Uint64
	reopens   atomic.Uint64
	busyNanos atomic.Int64

	framer   *dsp.Framer
	plan     *fft.Plan
	frameBuf []float64
	fftBuf   []complex128
	bands    []float64
	pixels   led.Frame

	// nextSeq is the block sequence number we expect next from the
	// current session.
	nextSeq uint64

	// sessionBlocks counts blocks delivered by the current session, to
	// tell a fresh outage from a device that never came back.
	sessionBlocks uint64
}

func New(cfg Config) *Pipeline {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	p := &Pipeline{
		cfg:      cfg,
		framer:   dsp.NewFramer(cfg.SampleSize, cfg.Windower),
		frameBuf: make([]float64, cfg.SampleSize),
		fftBuf:   make([]complex128, cfg.SampleSize/2+1),
		bands:    make([]float64, cfg.Analyzer.BandCount()),
		pixels:   led.MakeFrame(cfg.LEDCount),
	}

	fft.InitPlan(&p.plan, p.frameBuf, p.fftBuf)

	p.state.Store(int32(StateStarting))

	return p
}

// State returns the current lifecycle phase.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Metrics returns a snapshot of the counters.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		Frames:    p.frames.Load(),
		Underruns: p.underruns.Load(),
		Reopens:   p.reopens.Load(),
	}
}

// Run loops until ctx is canceled or the output sink disappears. A failing
// capture device is reopened with exponential backoff while the strip shows
// black; only backoff exhaustion or a closed transport end the run early.
func (p *Pipeline) Run(ctx context.Context) error {
	p.state.Store(int32(StateRunning))
	defer p.state.Store(int32(StateStopped))

	if p.cfg.Verbose {
		reportCtx, stopReport := context.WithCancel(ctx)
		defer stopReport()
		go p.reporter(reportCtx)
	}

	backoff := backoffInitial
	retries := 0

	for {
		err := p.runSession(ctx)

		switch {
		case ctx.Err() != nil:
			return p.drain()

		case errors.Is(err, ErrTransportGone):
			return err

		case errors.Is(err, input.ErrDevice):
			// A session that delivered blocks had recovered; its dropout
			// starts a fresh outage rather than extending the last one.
			if p.sessionBlocks > 0 {
				retries = 0
				backoff = backoffInitial
			}

			retries++
			p.reopens.Add(1)

			if retries > p.cfg.MaxRetries {
				return errors.Wrap(err, "capture device failed for good")
			}

			log.Printf("capture device error (retry %d/%d in %v): %v",
				retries, p.cfg.MaxRetries, backoff, err)

			// Black instead of a frozen last frame during the outage.
			p.emitZero()

			select {
			case <-ctx.Done():
				return p.drain()
			case <-time.After(backoff):
			}

			if backoff *= 2; backoff > backoffMax {
				backoff = backoffMax
			}

		case err != nil:
			return err

		default:
			// Session ended cleanly without cancellation; treat like a
			// device dropout so a flapping source does not kill us.
			retries = 0
			backoff = backoffInitial
		}
	}
}

// ErrTransportGone wraps output write failures so Run can tell them apart
// from device trouble.
var ErrTransportGone = errors.New("output sink gone")

// runSession opens one capture session and consumes its blocks until the
// session ends or ctx is canceled.
func (p *Pipeline) runSession(ctx context.Context) error {
	session, err := p.cfg.Backend.Start(p.cfg.Session)
	if err != nil {
		return err
	}

	sessionCtx, stopSession := context.WithCancel(ctx)
	defer stopSession()

	blocks := make(chan input.Block)
	sessionErr := make(chan error, 1)

	src := blocks
	if p.cfg.Threaded {
		queued := make(chan input.Block, queueDepth)
		go p.pump(sessionCtx, blocks, queued)
		src = queued
	}

	go func() {
		sessionErr <- session.Start(sessionCtx, blocks)
	}()

	p.nextSeq = 0
	p.sessionBlocks = 0

	for {
		select {
		case <-ctx.Done():
			// Let the session release the device before returning.
			stopSession()
			<-sessionErr
			return ctx.Err()

		case err := <-sessionErr:
			return err

		case block := <-src:
			if err := p.processBlock(block); err != nil {
				stopSession()
				<-sessionErr
				return err
			}
		}
	}
}

// processBlock feeds one block through the analysis chain, emitting at most
// one pixel frame. Sequence gaps are recorded as underruns; the lost blocks
// simply produce no frames, they are never substituted with stale audio.
func (p *Pipeline) processBlock(block input.Block) error {
	if block.Seq > p.nextSeq {
		p.underruns.Add(block.Seq - p.nextSeq)
	}
	p.nextSeq = block.Seq + 1
	p.sessionBlocks++

	start := time.Now()

	p.framer.Push(block.Samples)
	if !p.framer.Ready() {
		return nil
	}

	p.framer.Frame(p.frameBuf)
	p.plan.Execute()
	p.cfg.Analyzer.Process(p.fftBuf, p.bands)
	p.cfg.Mapper.Map(p.bands, p.pixels)

	if err := p.cfg.Output.Write(p.pixels); err != nil {
		return errors.Wrapf(ErrTransportGone, "%v", err)
	}

	p.frames.Add(1)
	p.busyNanos.Add(int64(time.Since(start)))

	return nil
}

// drain emits the final all-zero frame so the strip does not freeze on the
// last image, then stops.
func (p *Pipeline) drain() error {
	p.state.Store(int32(StateDraining))
	p.emitZero()
	return nil
}

func (p *Pipeline) emitZero() {
	p.pixels.Clear()
	if err := p.cfg.Output.Write(p.pixels); err != nil {
		log.Printf("failed to clear the strip: %v", err)
	}
}

// reporter periodically logs throughput and duty cycle.
func (p *Pipeline) reporter(ctx context.Context) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	var lastFrames, lastUnderruns uint64
	var lastBusy int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frames := p.frames.Load()
		underruns := p.underruns.Load()
		busy := p.busyNanos.Load()

		log.Printf("pipeline: %d frames, %d underruns, %.1f%% busy",
			frames-lastFrames,
			underruns-lastUnderruns,
			100*float64(busy-lastBusy)/float64(reportInterval))

		lastFrames, lastUnderruns, lastBusy = frames, underruns, busy
	}
}
