// Package all imports every capture backend so their init registrations run.
package all

import (
	_ "github.com/BurningKarl/LightOrgan/input/alsa"
	_ "github.com/BurningKarl/LightOrgan/input/parec"
	_ "github.com/BurningKarl/LightOrgan/input/portaudio"
	_ "github.com/BurningKarl/LightOrgan/input/wavfile"
)
