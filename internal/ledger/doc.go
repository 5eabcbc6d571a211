// Package ledger implements an append-only, hash-linked chain of blocks.
//
// Records are staged into a mutable buffer and sealed into a new Block that
// commits to its predecessor's hash and to the sealed record batch. The chain
// starts with a genesis block whose PreviousHash is the sentinel "0".
//
// Block hashes are computed over the canonical encoding returned by
// Canonical. The encoding is a stable contract: persisters that reload a
// chain must round-trip every field it covers, or Verify will fail.
//
// Validation starts at index 1. The genesis block is only checked indirectly,
// as the anchor of block 1's PreviousHash link.
package ledger
