package led

// rainbow spreads a fixed hue wheel across the strip and lets each LED's
// band intensity drive its brightness.
type rainbow struct {
	base Frame // full-brightness base color per LED
}

func newRainbow(ledCount, bandCount int) *rainbow {
	m := &rainbow{base: MakeFrame(ledCount)}

	for i := range m.base {
		r, g, b := hsvToRGB(float64(i)/float64(ledCount), 1.0, 1.0)
		m.base[i] = Pixel{
			R: clampChannel(r),
			G: clampChannel(g),
			B: clampChannel(b),
		}
	}

	return m
}

func (m *rainbow) Map(bands []float64, frame Frame) {
	for i := range frame {
		scale := ledIntensity(bands, i, len(frame)) / 255.0

		frame[i] = Pixel{
			R: clampChannel(scale * float64(m.base[i].R) / 255.0),
			G: clampChannel(scale * float64(m.base[i].G) / 255.0),
			B: clampChannel(scale * float64(m.base[i].B) / 255.0),
		}
	}
}

// groupColors are the fixed hue groups, low bands first. They repeat when
// there are more band groups than colors.
var groupColors = []Pixel{
	{B: 255},         // low: pure blue
	{R: 255},         // mid: pure red
	{G: 255},         // high: pure green
	{R: 255, B: 255}, // extra groups cycle through mixes
	{R: 255, G: 255},
	{G: 255, B: 255},
}

// bandGroups splits the strip into contiguous groups of LEDs, one group per
// frequency region, each with a fixed hue.
type bandGroups struct {
	base Frame
}

func newBandGroups(ledCount, bandCount int) *bandGroups {
	m := &bandGroups{base: MakeFrame(ledCount)}

	groups := bandCount
	if groups > len(groupColors) {
		groups = len(groupColors)
	}

	for i := range m.base {
		group := i * groups / ledCount
		m.base[i] = groupColors[group%len(groupColors)]
	}

	return m
}

func (m *bandGroups) Map(bands []float64, frame Frame) {
	for i := range frame {
		scale := ledIntensity(bands, i, len(frame)) / 255.0

		frame[i] = Pixel{
			R: clampChannel(scale * float64(m.base[i].R) / 255.0),
			G: clampChannel(scale * float64(m.base[i].G) / 255.0),
			B: clampChannel(scale * float64(m.base[i].B) / 255.0),
		}
	}
}

// mono drives the whole strip with one warm hue whose brightness follows the
// overall loudness.
type mono struct{}

func newMono() *mono {
	return &mono{}
}

func (m *mono) Map(bands []float64, frame Frame) {
	sum := 0.0
	for _, v := range bands {
		sum += v
	}
	scale := sum / (float64(len(bands)) * 255.0)

	r, g, b := hsvToRGB(0.08, 0.6, scale)
	px := Pixel{
		R: clampChannel(r),
		G: clampChannel(g),
		B: clampChannel(b),
	}

	for i := range frame {
		frame[i] = px
	}
}
