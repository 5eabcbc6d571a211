package ledger

import (
	"encoding/json"
	"time"
)

// GenesisPreviousHash is the sentinel PreviousHash of the genesis block.
const GenesisPreviousHash = "0"

// Record is a single staged ledger entry.
type Record struct {
	Payload  string    `json:"payload"`
	StagedAt time.Time `json:"staged_at"`
}

// Block is one sealed segment of the chain.
type Block struct {
	Index        int       `json:"index"`
	PreviousHash string    `json:"previous_hash"`
	Timestamp    time.Time `json:"timestamp"`
	Records      []Record  `json:"records"`
	Hash         string    `json:"hash"`
}

// IsGenesis reports whether b sits at the root of the chain.
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// clone returns a copy of b that shares no memory with it.
func (b Block) clone() Block {
	b.Records = cloneRecords(b.Records)
	return b
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// instant is a timestamp as [Unix seconds, nanoseconds within the second].
// Unlike UnixNano it is defined for every time.Time, the zero value included.
type instant [2]int64

func instantOf(t time.Time) instant {
	return instant{t.Unix(), int64(t.Nanosecond())}
}

// canonicalRecord carries the payload as bytes so encoding/json writes it as
// base64 and no byte sequence is rewritten.
type canonicalRecord struct {
	Payload  []byte  `json:"payload"`
	StagedAt instant `json:"staged_at"`
}

// canonicalBlock mirrors Block with keys in lexicographic order.
type canonicalBlock struct {
	Hash         string            `json:"hash"`
	Index        int               `json:"index"`
	PreviousHash string            `json:"previous_hash"`
	Records      []canonicalRecord `json:"records"`
	Timestamp    instant           `json:"timestamp"`
}

// Canonical returns the byte encoding a block's hash is computed over.
//
// The layout is a compact JSON object with lexicographically ordered keys,
// an empty "hash" placeholder and "records" always present as an array in
// staging order. Payloads are standard base64 of their raw bytes. Both
// timestamps are [seconds, nanoseconds] pairs since the Unix epoch:
//
//	{"hash":"","index":1,"previous_hash":"…","records":[{"payload":"cGF5","staged_at":[1700000000,0]}],"timestamp":[1700000000,5]}
//
// The stored Hash field of b is ignored.
func Canonical(b Block) []byte {
	cb := canonicalBlock{
		Hash:         "",
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		Records:      make([]canonicalRecord, 0, len(b.Records)),
		Timestamp:    instantOf(b.Timestamp),
	}
	for _, r := range b.Records {
		cb.Records = append(cb.Records, canonicalRecord{
			Payload:  []byte(r.Payload),
			StagedAt: instantOf(r.StagedAt),
		})
	}

	// Only strings, bytes and integers: Marshal cannot fail here.
	data, _ := json.Marshal(cb)
	return data
}
