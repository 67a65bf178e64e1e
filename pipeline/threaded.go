package pipeline

import (
	"context"

	"github.com/BurningKarl/LightOrgan/input"
)

// pump moves blocks from the capture session into the bounded queue. When
// the analysis side falls behind and the queue is full, the oldest queued
// block is dropped. Visual lag is more noticeable than a skipped frame, so
// freshness wins over completeness. A dropped block leaves a sequence gap
// that the consumer records as an underrun.
func (p *Pipeline) pump(ctx context.Context, src <-chan input.Block, dst chan input.Block) {
	for {
		var block input.Block

		select {
		case <-ctx.Done():
			return
		case block = <-src:
		}

		for {
			select {
			case dst <- block:
			default:
				select {
				case <-dst:
				default:
				}
				continue
			}
			break
		}
	}
}
