package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/events"
	"github.com/jmerrifield20/hashledger/internal/ledger"
	"github.com/jmerrifield20/hashledger/internal/service"
	"github.com/jmerrifield20/hashledger/internal/store"
)

var ctx = context.Background()

// failingStore accepts genesis and then rejects every append.
type failingStore struct {
	*store.Memory
	fail bool
}

func (f *failingStore) Append(ctx context.Context, b ledger.Block) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Append(ctx, b)
}

func TestOpen_newStorePersistsGenesis(t *testing.T) {
	st := store.NewMemory()
	svc, err := service.Open(ctx, st, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	blocks, _ := st.Load(ctx)
	if len(blocks) != 1 || blocks[0].PreviousHash != ledger.GenesisPreviousHash {
		t.Fatalf("expected persisted genesis, got %+v", blocks)
	}
	if o := svc.Overview(); o.Blocks != 1 || o.Head != blocks[0].Hash || o.Algorithm != "sha256" {
		t.Errorf("unexpected overview %+v", o)
	}
}

func TestOpen_restoresExistingChain(t *testing.T) {
	st := store.NewMemory()
	first, err := service.Open(ctx, st, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	first.Stage("pay Alice 10")
	sealed, err := first.Seal(ctx)
	if err != nil {
		t.Fatal(err)
	}

	second, err := service.Open(ctx, st, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Validate() {
		t.Error("restored chain should validate")
	}
	got, err := second.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != sealed.Hash {
		t.Errorf("restored block 1 hash %q, want %q", got.Hash, sealed.Hash)
	}
}

func TestOpen_servesTamperedChain(t *testing.T) {
	st := store.NewMemory()
	l := ledger.New(ledger.WithCommitHook(st.Append))
	genesis, _ := l.Head()
	st.Append(ctx, genesis) //nolint:errcheck
	forged := ledger.Block{Index: 1, PreviousHash: "not-genesis", Hash: "x"}
	if err := st.Append(ctx, forged); err != nil {
		t.Fatal(err)
	}

	svc, err := service.Open(ctx, st, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Verify(); !errors.Is(err, ledger.ErrBrokenLink) {
		t.Errorf("expected ErrBrokenLink, got %v", err)
	}
}

func TestSeal_publishesAndRecords(t *testing.T) {
	bus := events.NewBus()
	sub, cancel := bus.Subscribe()
	defer cancel()

	var mu sync.Mutex
	var recorded []int
	svc, err := service.Open(ctx, store.NewMemory(), bus, zap.NewNop(),
		service.WithSealRecorder(func(records int, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				recorded = append(recorded, records)
			}
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	svc.Stage("a")
	svc.Stage("b")
	b, err := svc.Seal(ctx)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-sub:
		if got.Hash != b.Hash {
			t.Errorf("published %q, want %q", got.Hash, b.Hash)
		}
	default:
		t.Error("sealed block was not published")
	}
	if len(recorded) != 1 || recorded[0] != 2 {
		t.Errorf("recorder saw %v, want [2]", recorded)
	}
}

func TestSeal_storeFailureLeavesChainUntouched(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory()}
	bus := events.NewBus()
	sub, cancel := bus.Subscribe()
	defer cancel()

	svc, err := service.Open(ctx, st, bus, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	svc.Stage("a")
	st.fail = true

	if _, err := svc.Seal(ctx); err == nil {
		t.Fatal("expected seal to fail")
	}
	if o := svc.Overview(); o.Blocks != 1 || o.Staged != 1 {
		t.Errorf("failed seal changed state: %+v", o)
	}
	select {
	case b := <-sub:
		t.Errorf("failed seal published block %d", b.Index)
	default:
	}
}

func TestOpen_withAlgorithm(t *testing.T) {
	svc, err := service.Open(ctx, store.NewMemory(), nil, zap.NewNop(),
		service.WithLedgerOptions(ledger.WithAlgorithm(ledger.SHA3_256)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.Overview().Algorithm; got != "sha3-256" {
		t.Errorf("algorithm: got %q, want sha3-256", got)
	}
}
