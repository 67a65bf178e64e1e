package input

import "context"

// Sample is the amplitude type produced by all capture sessions.
type Sample = float64

// Block is a fixed-size run of mono samples read from a capture device.
// Seq increases by one for every block the device produced, including
// blocks that were lost before delivery; a gap in Seq is an underrun.
type Block struct {
	Seq     uint64
	Samples []Sample
}

// SessionConfig describes what a capture session should read.
type SessionConfig struct {
	// Device is the device to read from, obtained from the backend.
	Device Device
	// SampleRate is the rate at which samples are read.
	SampleRate float64
	// BlockSize is the number of samples per delivered block.
	BlockSize int
}

// Session reads sample blocks from a capture device.
type Session interface {
	// Start blocks and reads from the device until ctx is canceled,
	// sending each block to out. It owns the device handle for its
	// lifetime and releases it before returning.
	Start(ctx context.Context, out chan<- Block) error
}

// MakeBlock allocates a block with a fresh sample buffer.
func MakeBlock(seq uint64, size int) Block {
	return Block{Seq: seq, Samples: make([]Sample, size)}
}
