// Package events fans sealed blocks out to in-process subscribers such as the
// WebSocket stream and webhook dispatcher.
package events

import (
	"sync"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

const subscriberBuffer = 16

// Bus delivers each published block to every current subscriber.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]chan ledger.Block
}

// NewBus returns a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan ledger.Block)}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; calling it more than once is harmless.
func (b *Bus) Subscribe() (<-chan ledger.Block, func()) {
	ch := make(chan ledger.Block, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish never blocks. A subscriber whose buffer is full misses the block.
func (b *Bus) Publish(block ledger.Block) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		own := block
		own.Records = make([]ledger.Record, len(block.Records))
		copy(own.Records, block.Records)
		select {
		case ch <- own:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
