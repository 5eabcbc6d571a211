// Package service wires the ledger to its store, event bus and metrics.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/events"
	"github.com/jmerrifield20/hashledger/internal/ledger"
	"github.com/jmerrifield20/hashledger/internal/store"
)

// SealRecorder is called after every seal attempt. Implementations must be
// safe for concurrent use.
type SealRecorder func(records int, elapsed time.Duration, err error)

// Overview summarises the chain.
type Overview struct {
	Blocks    int    `json:"blocks"`
	Head      string `json:"head"`
	Staged    int    `json:"staged"`
	Algorithm string `json:"algorithm"`
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithLedgerOptions forwards options to the underlying ledger, e.g. the
// digest algorithm or a clock.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(s *LedgerService) { s.ledgerOpts = append(s.ledgerOpts, opts...) }
}

// WithSealRecorder registers fn to observe seals.
func WithSealRecorder(fn SealRecorder) Option {
	return func(s *LedgerService) { s.recorder = fn }
}

// LedgerService is the single entry point the HTTP, gRPC and CLI surfaces use.
type LedgerService struct {
	ledger     *ledger.Ledger
	store      store.Store
	bus        *events.Bus
	logger     *zap.Logger
	recorder   SealRecorder
	ledgerOpts []ledger.Option
}

// Open restores the chain held by st, or starts a new chain and persists its
// genesis block when st is empty. A restored chain that fails verification is
// still served; the failure is logged and reported by Verify.
func Open(ctx context.Context, st store.Store, bus *events.Bus, logger *zap.Logger, opts ...Option) (*LedgerService, error) {
	s := &LedgerService{store: st, bus: bus, logger: logger}
	for _, o := range opts {
		o(s)
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}
	ledgerOpts := append(s.ledgerOpts, ledger.WithCommitHook(st.Append))

	blocks, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}

	if len(blocks) == 0 {
		s.ledger = ledger.New(ledgerOpts...)
		genesis, _ := s.ledger.Head()
		if err := st.Append(ctx, genesis); err != nil {
			return nil, fmt.Errorf("persist genesis: %w", err)
		}
		logger.Info("initialized new chain",
			zap.String("genesis", genesis.Hash),
			zap.String("algorithm", s.ledger.Algorithm().String()),
		)
		return s, nil
	}

	s.ledger, err = ledger.Restore(blocks, ledgerOpts...)
	if err != nil {
		return nil, fmt.Errorf("restore chain: %w", err)
	}
	if err := s.ledger.Verify(); err != nil {
		logger.Warn("restored chain failed verification", zap.Error(err))
	} else {
		logger.Info("restored chain", zap.Int("blocks", len(blocks)))
	}
	return s, nil
}

// Stage adds payload to the staging buffer.
func (s *LedgerService) Stage(payload string) ledger.Record {
	r := s.ledger.Stage(payload)
	s.logger.Debug("record staged", zap.Int("bytes", len(payload)))
	return r
}

// Seal persists and appends a block holding every staged record, then
// publishes it to subscribers.
func (s *LedgerService) Seal(ctx context.Context) (ledger.Block, error) {
	start := time.Now()
	b, err := s.ledger.Seal(ctx)
	if s.recorder != nil {
		s.recorder(len(b.Records), time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("seal failed", zap.Error(err))
		return ledger.Block{}, err
	}

	s.bus.Publish(b)
	s.logger.Info("block sealed",
		zap.Int("index", b.Index),
		zap.String("hash", b.Hash),
		zap.Int("records", len(b.Records)),
	)
	return b, nil
}

// Validate reports whether the chain is intact.
func (s *LedgerService) Validate() bool { return s.ledger.Validate() }

// Verify returns the first chain failure, if any.
func (s *LedgerService) Verify() error { return s.ledger.Verify() }

// Enumerate returns every block in order.
func (s *LedgerService) Enumerate() []ledger.Block { return s.ledger.Enumerate() }

// Get returns the block at index.
func (s *LedgerService) Get(index int) (ledger.Block, error) { return s.ledger.Get(index) }

// Staged returns the pending records.
func (s *LedgerService) Staged() []ledger.Record { return s.ledger.Staged() }

// Overview returns chain length, head hash, staged count and algorithm.
func (s *LedgerService) Overview() Overview {
	o := Overview{
		Blocks:    s.ledger.Len(),
		Staged:    len(s.ledger.Staged()),
		Algorithm: s.ledger.Algorithm().String(),
	}
	if head, err := s.ledger.Head(); err == nil {
		o.Head = head.Hash
	}
	return o
}

// Subscribe streams sealed blocks until cancel is called.
func (s *LedgerService) Subscribe() (<-chan ledger.Block, func()) {
	return s.bus.Subscribe()
}

// Close releases the store.
func (s *LedgerService) Close() error {
	return s.store.Close()
}
