// Package alsa provides an ALSA capture backend that reads samples from the
// arecord command.
package alsa

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/input"
	"github.com/BurningKarl/LightOrgan/input/common/execread"
)

func init() {
	input.RegisterBackend("alsa", Backend{})
}

type Backend struct{}

func (a Backend) Init() error {
	if _, err := exec.LookPath("arecord"); err != nil {
		return errors.Wrap(err, "arecord not found in PATH")
	}
	return nil
}

func (a Backend) Close() error {
	return nil
}

// Devices lists PCM names known to arecord -L. Only the name lines are
// wanted; description lines are indented.
func (a Backend) Devices() ([]input.Device, error) {
	out, err := exec.Command("arecord", "-L").Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to run arecord -L")
	}

	var devices []input.Device

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, " ") {
			continue
		}
		devices = append(devices, Device(line))
	}

	return devices, scanner.Err()
}

func (a Backend) DefaultDevice() (input.Device, error) {
	return Device("default"), nil
}

func (a Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg)
}

type Device string

func (d Device) String() string {
	return string(d)
}

func NewSession(cfg input.SessionConfig) (*execread.Session, error) {
	dv, ok := cfg.Device.(Device)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	argv := []string{
		"arecord",
		"-t", "raw",
		"-f", "S16_LE",
		"-c", "1",
		"-r", fmt.Sprintf("%.0f", cfg.SampleRate),
		"-D", dv.String(),
	}

	return execread.NewSession(argv, false, cfg), nil
}
