package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// Memory is an in-process Store. It is useful for tests and for deployments
// that do not need the chain to survive a restart.
type Memory struct {
	mu     sync.RWMutex
	blocks []ledger.Block
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, b ledger.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Index != len(m.blocks) {
		return fmt.Errorf("append block %d onto %d stored: %w", b.Index, len(m.blocks), ErrConflict)
	}
	m.blocks = append(m.blocks, copyBlock(b))
	return nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) ([]ledger.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Block, len(m.blocks))
	for i, b := range m.blocks {
		out[i] = copyBlock(b)
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
