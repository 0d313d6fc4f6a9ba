// Package engine wraps pebble as a set of keyed collections with atomic
// multi-collection batches.
//
// The engine knows nothing about entity semantics: it stores opaque values
// under the key schema in keys.go and guarantees that a committed batch is
// applied as one atomic unit, whatever collections its keys belong to. That
// is the property the cascade operations in internal/database rely on.
package engine

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
)

// schemaVersion is the single supported on-disk schema.
const schemaVersion = "1"

// quotaWarnRatio is the usage fraction past which writes log a warning,
// mirroring the capture app's 80% storage warning.
const quotaWarnRatio = 0.8

var schemaKey = []byte("meta:schema")

// Options configures an Engine.
type Options struct {
	// Path is the directory holding the store.
	Path string

	// Quota is the disk budget in bytes. Zero disables quota checks.
	Quota int64

	Logger zerolog.Logger
}

// Engine is a handle on the underlying keyed store. Open it once at startup
// and share it; Close only after all operations have completed.
type Engine struct {
	db    *pebble.DB
	path  string
	quota int64
	log   zerolog.Logger
}

// Open opens (creating if needed) the store at opts.Path and verifies the
// schema version.
func Open(opts Options) (*Engine, error) {
	db, err := pebble.Open(opts.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, opts.Path, err)
	}

	e := &Engine{db: db, path: opts.Path, quota: opts.Quota, log: opts.Logger}
	if err := e.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}

	e.log.Debug().Str("path", opts.Path).Msg("engine opened")
	return e, nil
}

func (e *Engine) checkSchema() error {
	val, closer, err := e.db.Get(schemaKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return e.db.Set(schemaKey, []byte(schemaVersion), pebble.Sync)
	}
	if err != nil {
		return fmt.Errorf("%w: read schema: %v", ErrUnavailable, err)
	}
	defer closer.Close()

	if string(val) != schemaVersion {
		return fmt.Errorf("%w: store has version %q, expected %q", ErrSchemaMismatch, val, schemaVersion)
	}
	return nil
}

// Close releases the store handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Get returns a copy of the value at key, or ErrNotFound.
func (e *Engine) Get(key []byte) ([]byte, error) {
	val, closer, err := e.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Set writes a single key.
func (e *Engine) Set(key, val []byte) error {
	if err := e.checkQuota(); err != nil {
		return err
	}
	if err := e.db.Set(key, val, pebble.Sync); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes a single key. Deleting an absent key is not an error at
// this layer; required-presence checks live in the repositories.
func (e *Engine) Delete(key []byte) error {
	if err := e.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Batch stages writes across any collections for one atomic commit.
type Batch struct {
	b *pebble.Batch
}

// NewBatch starts an empty batch.
func (e *Engine) NewBatch() *Batch {
	return &Batch{b: e.db.NewBatch()}
}

// Set stages a write.
func (b *Batch) Set(key, val []byte) error {
	return b.b.Set(key, val, nil)
}

// Delete stages a removal.
func (b *Batch) Delete(key []byte) error {
	return b.b.Delete(key, nil)
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return int(b.b.Count())
}

// Commit applies the batch atomically and syncs it to disk.
func (e *Engine) Commit(batch *Batch) error {
	if err := e.checkQuota(); err != nil {
		batch.b.Close()
		return err
	}
	if err := batch.b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Discard drops a batch without applying it.
func (e *Engine) Discard(batch *Batch) {
	_ = batch.b.Close()
}

// Scan calls fn for every key with the given prefix, in ascending key order.
// Returning an error from fn stops the scan.
func (e *Engine) Scan(prefix []byte, fn func(key, val []byte) error) error {
	iter, err := e.newPrefixIter(prefix)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// ScanReverse is Scan in descending key order.
func (e *Engine) ScanReverse(prefix []byte, fn func(key, val []byte) error) error {
	iter, err := e.newPrefixIter(prefix)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Last(); iter.Valid(); iter.Prev() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) newPrefixIter(prefix []byte) (*pebble.Iterator, error) {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate %s: %w", prefix, err)
	}
	return iter, nil
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff; no upper bound
}

// Usage reports disk consumption against the configured quota.
type Usage struct {
	Used  int64
	Quota int64
}

// EstimateUsage returns current disk usage. Quota is zero when unlimited.
func (e *Engine) EstimateUsage() Usage {
	return Usage{
		Used:  int64(e.db.Metrics().DiskSpaceUsage()),
		Quota: e.quota,
	}
}

func (e *Engine) checkQuota() error {
	if e.quota <= 0 {
		return nil
	}
	used := int64(e.db.Metrics().DiskSpaceUsage())
	if used >= e.quota {
		return fmt.Errorf("%w: %d of %d bytes used", ErrQuotaExceeded, used, e.quota)
	}
	if float64(used) >= float64(e.quota)*quotaWarnRatio {
		e.log.Warn().
			Int64("used", used).
			Int64("quota", e.quota).
			Msg("storage usage above warning threshold")
	}
	return nil
}

// Reset drops every collection and reinitializes the schema key.
func (e *Engine) Reset() error {
	if err := e.db.DeleteRange([]byte{0x00}, []byte{0xff}, pebble.Sync); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := e.db.Set(schemaKey, []byte(schemaVersion), pebble.Sync); err != nil {
		return fmt.Errorf("reset: rewrite schema: %w", err)
	}
	e.log.Info().Str("path", e.path).Msg("store reset")
	return nil
}
