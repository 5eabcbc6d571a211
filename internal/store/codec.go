package store

import (
	"encoding/json"
	"time"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// instant is [Unix seconds, nanoseconds] so every time.Time round-trips to
// the same instant and a reloaded block hashes to the same digest.
type instant [2]int64

func toInstant(t time.Time) instant {
	return instant{t.Unix(), int64(t.Nanosecond())}
}

func (i instant) time() time.Time {
	return time.Unix(i[0], i[1]).UTC()
}

// storedRecord and storedBlock are the on-disk layout. Payloads are bytes so
// JSON stores them as base64 and invalid UTF-8 survives a reload.
type storedRecord struct {
	Payload  []byte  `json:"payload"`
	StagedAt instant `json:"staged_at"`
}

type storedBlock struct {
	Index        int            `json:"index"`
	PreviousHash string         `json:"previous_hash"`
	Timestamp    instant        `json:"timestamp"`
	Records      []storedRecord `json:"records"`
	Hash         string         `json:"hash"`
}

func toStoredRecords(records []ledger.Record) []storedRecord {
	out := make([]storedRecord, len(records))
	for i, r := range records {
		out[i] = storedRecord{Payload: []byte(r.Payload), StagedAt: toInstant(r.StagedAt)}
	}
	return out
}

func fromStoredRecords(records []storedRecord) []ledger.Record {
	out := make([]ledger.Record, len(records))
	for i, r := range records {
		out[i] = ledger.Record{Payload: string(r.Payload), StagedAt: r.StagedAt.time()}
	}
	return out
}

func encodeBlock(b ledger.Block) ([]byte, error) {
	return json.Marshal(storedBlock{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		Timestamp:    toInstant(b.Timestamp),
		Records:      toStoredRecords(b.Records),
		Hash:         b.Hash,
	})
}

func decodeBlock(data []byte) (ledger.Block, error) {
	var sb storedBlock
	if err := json.Unmarshal(data, &sb); err != nil {
		return ledger.Block{}, err
	}
	return ledger.Block{
		Index:        sb.Index,
		PreviousHash: sb.PreviousHash,
		Timestamp:    sb.Timestamp.time(),
		Records:      fromStoredRecords(sb.Records),
		Hash:         sb.Hash,
	}, nil
}
