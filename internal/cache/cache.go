// Package cache provides the durable transcript cache consulted before any
// extraction work. Entries expire after a fixed TTL; expiry is silent miss
// semantics, never an error.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/video"
)

// TTL is the validity window of a cache entry.
const TTL = 30 * 24 * time.Hour

// schemaVersion is folded into every cache key so payload layout changes
// invalidate old entries instead of misparsing them.
const schemaVersion = 1

// Key is the deterministic composite identifying one cached transcript.
type Key struct {
	VideoID  string
	Language string
	Mode     video.Mode
}

func NewKey(ref video.Ref) Key {
	mode := ref.Mode
	if mode == "" {
		mode = video.ModeAuto
	}
	return Key{
		VideoID:  ref.ID,
		Language: ref.Language,
		Mode:     mode,
	}
}

// String returns the stable storage key: a hash of the composite, so two
// requests with identical components always address the same entry.
func (k Key) String() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|v%d", k.VideoID, k.Language, k.Mode, schemaVersion)))
	return hex.EncodeToString(sum[:])
}

// Entry is an immutable cached transcript. A refresh writes a new entry that
// supersedes the old one under the same key.
type Entry struct {
	Key        Key
	Transcript video.Transcript
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Valid reports whether the entry is still inside its TTL window at now.
func (e *Entry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Stats is a read-only snapshot of cache contents.
type Stats struct {
	EntryCount     int
	TotalSizeBytes int64
	OldestEntryAge time.Duration
}

// ClearFilter narrows a Clear call. The zero filter clears everything.
type ClearFilter struct {
	// VideoID restricts removal to entries for one video.
	VideoID string
	// Mode restricts removal to entries produced by one extraction mode.
	Mode video.Mode
	// ExpiredOnly restricts removal to entries past their TTL.
	ExpiredOnly bool
}

// Store is the durable key-to-entry mapping. Implementations must be safe
// for concurrent use; writes to the same key must not interleave.
type Store interface {
	// Get returns the entry for key iff present and unexpired, nil on miss
	// or expiry. An error means the storage medium itself is unusable.
	Get(ctx context.Context, key Key) (*Entry, error)
	// Put creates or replaces the entry for key with a fresh created_at.
	Put(ctx context.Context, key Key, transcript video.Transcript) (*Entry, error)
	// Stats reports cache contents without mutating state.
	Stats(ctx context.Context) (Stats, error)
	// Clear removes entries matching the filter (all entries when filter
	// is nil) and returns the number removed.
	Clear(ctx context.Context, filter *ClearFilter) (int64, error)
	Close() error
}
