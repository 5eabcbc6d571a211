package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// advisoryLockKey serialises concurrent Append calls across ledgerd
// instances sharing one database.
const advisoryLockKey = int64(1_482_730_611)

// Postgres persists blocks in the ledger_blocks table created by
// migrations/001_ledger_blocks.up.sql.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// OpenPostgres connects to dbURL and checks the connection.
func OpenPostgres(ctx context.Context, dbURL string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(pool, logger), nil
}

// Append implements Store. The tail check and insert run in one transaction
// under an advisory lock.
func (s *Postgres) Append(ctx context.Context, b ledger.Block) error {
	records, err := json.Marshal(toStoredRecords(b.Records))
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	var n int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM ledger_blocks").Scan(&n); err != nil {
		return fmt.Errorf("count ledger blocks: %w", err)
	}
	if b.Index != n {
		return fmt.Errorf("append block %d onto %d stored: %w", b.Index, n, ErrConflict)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_blocks (idx, previous_hash, timestamp_s, timestamp_nanos, records, hash)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.Index, b.PreviousHash, b.Timestamp.Unix(), b.Timestamp.Nanosecond(), records, b.Hash,
	); err != nil {
		return fmt.Errorf("insert block %d: %w", b.Index, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}

	s.logger.Debug("block persisted",
		zap.Int("index", b.Index),
		zap.String("hash", b.Hash),
		zap.Int("records", len(b.Records)),
	)
	return nil
}

// Load implements Store.
func (s *Postgres) Load(ctx context.Context) ([]ledger.Block, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT idx, previous_hash, timestamp_s, timestamp_nanos, records, hash
		 FROM ledger_blocks ORDER BY idx ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var (
			b       ledger.Block
			secs    int64
			nanos   int32
			records []byte
		)
		if err := rows.Scan(&b.Index, &b.PreviousHash, &secs, &nanos, &records, &b.Hash); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		var stored []storedRecord
		if err := json.Unmarshal(records, &stored); err != nil {
			return nil, fmt.Errorf("decode records of block %d: %w", b.Index, err)
		}
		b.Timestamp = time.Unix(secs, int64(nanos)).UTC()
		b.Records = fromStoredRecords(stored)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// Close implements Store.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
