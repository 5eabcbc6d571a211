package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrEmptyChain is returned when an operation needs a block to build on
	// and the chain has none.
	ErrEmptyChain = errors.New("genesis block not found")

	// ErrNotFound is returned by Get for an index outside the chain.
	ErrNotFound = errors.New("block not found")

	// ErrBrokenLink marks a block whose PreviousHash differs from its
	// predecessor's Hash.
	ErrBrokenLink = errors.New("previous hash does not match predecessor")

	// ErrHashMismatch marks a block whose stored Hash differs from the
	// digest of its fields.
	ErrHashMismatch = errors.New("stored hash does not match block contents")
)

// Clock returns the current instant. Tests inject a fixed clock to get
// reproducible digests.
type Clock func() time.Time

// CommitFunc runs inside Seal after a block has been built and before it is
// appended. A non-nil error aborts the seal and leaves the ledger untouched.
type CommitFunc func(ctx context.Context, b Block) error

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the timestamp source for blocks and staged records.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithAlgorithm selects the block digest.
func WithAlgorithm(a Algorithm) Option {
	return func(l *Ledger) {
		if a != "" {
			l.alg = a
		}
	}
}

// WithCommitHook registers fn to run on every sealed block.
func WithCommitHook(fn CommitFunc) Option {
	return func(l *Ledger) {
		l.commit = fn
	}
}

// Ledger owns the chain of sealed blocks and the staging buffer of pending
// records. It is safe for concurrent use.
type Ledger struct {
	mu     sync.RWMutex
	chain  []Block
	staged []Record

	clock  Clock
	alg    Algorithm
	commit CommitFunc
}

func newLedger(opts []Option) *Ledger {
	l := &Ledger{
		clock: func() time.Time { return time.Now().UTC() },
		alg:   SHA256,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// New creates a Ledger holding only the genesis block and an empty staging
// buffer.
func New(opts ...Option) *Ledger {
	l := newLedger(opts)
	l.chain = append(l.chain, l.build(0, GenesisPreviousHash, nil))
	return l
}

// Restore rebuilds a Ledger from previously sealed blocks. The blocks are
// copied and not validated; call Verify to check them.
func Restore(chain []Block, opts ...Option) (*Ledger, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}
	l := newLedger(opts)
	l.chain = make([]Block, len(chain))
	for i, b := range chain {
		l.chain[i] = b.clone()
	}
	return l, nil
}

// build assembles a block: provisional value with an empty hash, digest,
// then the final value carrying the digest.
func (l *Ledger) build(index int, prevHash string, records []Record) Block {
	b := Block{
		Index:        index,
		PreviousHash: prevHash,
		Timestamp:    l.clock(),
		Records:      cloneRecords(records),
		Hash:         "",
	}
	b.Hash = Digest(l.alg, b)
	return b
}

// Stage appends payload to the staging buffer and returns the staged record.
func (l *Ledger) Stage(payload string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := Record{Payload: payload, StagedAt: l.clock()}
	l.staged = append(l.staged, r)
	return r
}

// Seal moves every staged record into a new block linked to the chain tail,
// appends it and clears the staging buffer. It returns a copy of the new
// block, or ErrEmptyChain when there is no tail to link to.
func (l *Ledger) Seal(ctx context.Context) (Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) == 0 {
		return Block{}, ErrEmptyChain
	}
	prev := l.chain[len(l.chain)-1]
	b := l.build(len(l.chain), prev.Hash, l.staged)

	if l.commit != nil {
		if err := l.commit(ctx, b.clone()); err != nil {
			return Block{}, fmt.Errorf("commit block %d: %w", b.Index, err)
		}
	}

	l.chain = append(l.chain, b)
	l.staged = nil
	return b.clone(), nil
}

// Verify walks the chain from index 1 and returns the first linkage or hash
// failure it finds, wrapping ErrBrokenLink or ErrHashMismatch.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := 1; i < len(l.chain); i++ {
		curr, prev := l.chain[i], l.chain[i-1]
		if curr.PreviousHash != prev.Hash {
			return fmt.Errorf("block %d: %w", i, ErrBrokenLink)
		}
		if curr.Hash != Digest(l.alg, curr) {
			return fmt.Errorf("block %d: %w", i, ErrHashMismatch)
		}
	}
	return nil
}

// Validate reports whether every block links to its predecessor and still
// hashes to its stored Hash.
func (l *Ledger) Validate() bool {
	return l.Verify() == nil
}

// Enumerate returns a snapshot of the chain in order.
func (l *Ledger) Enumerate() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Block, len(l.chain))
	for i, b := range l.chain {
		out[i] = b.clone()
	}
	return out
}

// Len returns the number of blocks, genesis included.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Get returns the block at index.
func (l *Ledger) Get(index int) (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.chain) {
		return Block{}, fmt.Errorf("index %d: %w", index, ErrNotFound)
	}
	return l.chain[index].clone(), nil
}

// Head returns the most recently sealed block.
func (l *Ledger) Head() (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.chain) == 0 {
		return Block{}, ErrEmptyChain
	}
	return l.chain[len(l.chain)-1].clone(), nil
}

// Staged returns the records waiting for the next seal.
func (l *Ledger) Staged() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneRecords(l.staged)
}

// Algorithm returns the digest the ledger hashes blocks with.
func (l *Ledger) Algorithm() Algorithm {
	return l.alg
}
