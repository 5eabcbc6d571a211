// Package store persists sealed ledger blocks.
//
// A Store is an append-only sequence of blocks ordered by index. The service
// layer attaches Append to the ledger as its commit hook, so a block reaches
// the chain only after the store has accepted it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// ErrConflict is returned by Append when the block does not extend the
// stored tail by exactly one.
var ErrConflict = errors.New("block does not extend stored chain")

// Store is implemented by every persistence driver.
type Store interface {
	// Append persists b. b.Index must equal the number of stored blocks.
	Append(ctx context.Context, b ledger.Block) error
	// Load returns every stored block ordered by index.
	Load(ctx context.Context) ([]ledger.Block, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverLevelDB  = "leveldb"
	DriverPostgres = "postgres"
)

// Config selects and parameterises a driver.
type Config struct {
	Driver      string
	Path        string // leveldb directory
	DatabaseURL string // postgres connection string
}

// Open returns the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverLevelDB, "":
		return OpenLevelDB(cfg.Path, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func copyBlock(b ledger.Block) ledger.Block {
	b.Records = append(make([]ledger.Record, 0, len(b.Records)), b.Records...)
	return b
}
