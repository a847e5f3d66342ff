package domain

import (
	"context"
	"encoding/json"
)

// Transport is the persistent bidirectional gateway channel. Send is
// fire-and-forget: responses arrive on Messages, keyed by symbol, in
// arbitrary order and at arbitrary times. A single consumer must drain
// Messages so that simultaneous arrivals are never lost.
type Transport interface {
	Send(ctx context.Context, v any) error
	Messages() <-chan json.RawMessage
}

// TokenProvider supplies the identity token included in outbound batches.
// Tokens are per variant because each book authenticates as its own broker
// session.
type TokenProvider interface {
	Token(ctx context.Context, variant Variant) (string, error)
}

// SnapshotSource returns the holding rows that seed a variant's book at
// session start.
type SnapshotSource interface {
	Snapshot(ctx context.Context, variant Variant) ([]Holding, error)
}

// SnapshotCache is a TTL-bounded cache of raw snapshot payloads, used as a
// seed fallback when the snapshot API is unreachable. The in-memory holding
// store remains authoritative; the cache is never read after seeding.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, variant Variant, raw json.RawMessage) error
	GetSnapshot(ctx context.Context, variant Variant) (json.RawMessage, error)
}

// BlobReader retrieves objects from blob storage.
type BlobReader interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// BlobWriter stores objects in blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
