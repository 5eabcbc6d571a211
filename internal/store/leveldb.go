package store

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

var blockPrefix = []byte("b/")

// blockKey orders blocks by index under LevelDB's bytewise comparator.
func blockKey(index int) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], uint64(index))
	return key
}

// LevelDB stores one JSON value per block in an embedded LevelDB directory.
type LevelDB struct {
	mu     sync.Mutex
	db     *leveldb.DB
	length int
	logger *zap.Logger
}

// OpenLevelDB opens or creates the database at path.
func OpenLevelDB(path string, logger *zap.Logger) (*LevelDB, error) {
	if path == "" {
		return nil, errors.New("leveldb: empty path")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %s", path)
	}

	s := &LevelDB{db: db, logger: logger}
	iter := db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	for iter.Next() {
		s.length++
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}

	logger.Info("leveldb store opened", zap.String("path", path), zap.Int("blocks", s.length))
	return s, nil
}

// Append implements Store. Writes are synced before returning.
func (s *LevelDB) Append(_ context.Context, b ledger.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Index != s.length {
		return errors.Wrapf(ErrConflict, "append block %d onto %d stored", b.Index, s.length)
	}
	value, err := encodeBlock(b)
	if err != nil {
		return errors.Wrapf(err, "encode block %d", b.Index)
	}
	if err := s.db.Put(blockKey(b.Index), value, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrapf(err, "put block %d", b.Index)
	}
	s.length++

	s.logger.Debug("block persisted", zap.Int("index", b.Index), zap.String("hash", b.Hash))
	return nil
}

// Load implements Store.
func (s *LevelDB) Load(_ context.Context) ([]ledger.Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	var blocks []ledger.Block
	for iter.Next() {
		b, err := decodeBlock(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "decode block at key %x", iter.Key())
		}
		blocks = append(blocks, b)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.WithStack(err)
	}
	return blocks, nil
}

// Close implements Store.
func (s *LevelDB) Close() error {
	return errors.WithStack(s.db.Close())
}
