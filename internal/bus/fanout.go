// Package bus distributes price samples from the sampler to its consumers.
package bus

import (
	"context"
	"log"
	"sync"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// FanOut copies each sample from a single input channel to every
// subscriber. A full subscriber channel loses that sample rather than
// stalling the sampler.
type FanOut struct {
	mu      sync.RWMutex
	outputs []chan model.PriceSample
	bufSize int

	// OnDrop is called when a sample is dropped for a subscriber.
	// subscriberIdx is the 0-based index of the slow consumer.
	OnDrop func(subscriberIdx int)
}

// New creates a FanOut with the given buffer size for output channels.
func New(outputBufferSize int) *FanOut {
	if outputBufferSize < 1 {
		outputBufferSize = 1
	}
	return &FanOut{bufSize: outputBufferSize}
}

// Subscribe creates and returns a new output channel. Subscribe before Run.
func (f *FanOut) Subscribe() <-chan model.PriceSample {
	ch := make(chan model.PriceSample, f.bufSize)
	f.mu.Lock()
	f.outputs = append(f.outputs, ch)
	f.mu.Unlock()
	return ch
}

// Run reads from input and fans out to all subscribers. Blocks until ctx is
// cancelled or input is closed; all subscriber channels are closed on return.
func (f *FanOut) Run(ctx context.Context, input <-chan model.PriceSample) {
	defer func() {
		f.mu.RLock()
		for _, ch := range f.outputs {
			close(ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-input:
			if !ok {
				return
			}
			f.mu.RLock()
			for i, ch := range f.outputs {
				select {
				case ch <- s:
				default:
					if f.OnDrop != nil {
						f.OnDrop(i)
					} else {
						log.Printf("[bus] subscriber %d full, dropping sample %s@%.4f", i, s.Key(), s.Price)
					}
				}
			}
			f.mu.RUnlock()
		}
	}
}

// ChannelStat reports the fill level of one subscriber channel.
type ChannelStat struct {
	Len int
	Cap int
}

// ChannelStats returns (length, capacity) for each subscriber channel.
func (f *FanOut) ChannelStats() []ChannelStat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]ChannelStat, len(f.outputs))
	for i, ch := range f.outputs {
		stats[i] = ChannelStat{Len: len(ch), Cap: cap(ch)}
	}
	return stats
}
