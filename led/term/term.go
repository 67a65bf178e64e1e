// Package term renders pixel frames as colored cells in the terminal. It
// stands in for the LED strip when no hardware is attached, for example when
// tuning a visualizer on a desktop.
package term

import (
	"context"

	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/led"
	"github.com/BurningKarl/LightOrgan/util"
)

// cellsPerLED is how many terminal cells represent one LED.
const cellsPerLED = 2

// meterWindow is how many recent frames the loudness meter scales against.
const meterWindow = 120

// Preview draws frames on a termbox screen.
type Preview struct {
	cancel context.CancelFunc
	meter  *util.MovingWindow
}

func NewPreview() *Preview {
	return &Preview{
		meter: util.NewMovingWindow(meterWindow),
	}
}

// Init sets up the termbox screen. Must be called before Write.
func (p *Preview) Init() error {
	if err := termbox.Init(); err != nil {
		return errors.Wrap(err, "failed to init termbox")
	}

	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	return nil
}

// Start begins polling for key events. The returned context is canceled when
// the user quits with q, Esc or Ctrl-C.
func (p *Preview) Start(ctx context.Context) context.Context {
	ctx, p.cancel = context.WithCancel(ctx)

	go p.eventPoller(ctx)

	return ctx
}

func (p *Preview) eventPoller(ctx context.Context) {
	defer p.cancel()

	for {
		if ctx.Err() != nil {
			return
		}

		ev := termbox.PollEvent()

		switch ev.Type {
		case termbox.EventKey:
			switch {
			case ev.Key == termbox.KeyEsc,
				ev.Key == termbox.KeyCtrlC,
				ev.Ch == 'q':
				return
			}

		case termbox.EventInterrupt:
			return
		}
	}
}

// Stop stops the event poller.
func (p *Preview) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	termbox.Interrupt()
}

// Close tears the terminal back down.
func (p *Preview) Close() error {
	termbox.Close()
	return nil
}

// Write draws one frame as a single row of colored blocks.
func (p *Preview) Write(frame led.Frame) error {
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return err
	}

	for i, px := range frame {
		attr := colorAttr(px)
		for c := 0; c < cellsPerLED; c++ {
			termbox.SetCell(i*(cellsPerLED+1)+c, 1, '█', attr, termbox.ColorDefault)
		}
	}

	p.drawMeter(frame)

	return termbox.Flush()
}

// drawMeter draws a loudness bar under the pixel row, scaled against the
// recent history so that quiet and loud passages both stay readable.
func (p *Preview) drawMeter(frame led.Frame) {
	var loud float64
	for _, px := range frame {
		loud += float64(px.R) + float64(px.G) + float64(px.B)
	}
	loud /= float64(len(frame)) * 3

	mean, stddev := p.meter.Update(loud)

	scale := mean + 2*stddev
	if scale <= 0 {
		return
	}

	width := len(frame) * (cellsPerLED + 1)
	lit := int(loud / scale * float64(width))
	if lit > width {
		lit = width
	}

	for c := 0; c < lit; c++ {
		termbox.SetCell(c, 3, '▪', termbox.ColorWhite, termbox.ColorDefault)
	}
}

// colorAttr maps an RGB pixel onto the xterm 6x6x6 color cube.
func colorAttr(px led.Pixel) termbox.Attribute {
	r := int(px.R) * 5 / 255
	g := int(px.G) * 5 / 255
	b := int(px.B) * 5 / 255

	// Termbox attributes are the color index offset by one.
	return termbox.Attribute(16 + 36*r + 6*g + b + 1)
}
