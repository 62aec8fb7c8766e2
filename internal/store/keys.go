package store

import (
	"fmt"
	"sync"
)

// Key prefixes for each document type.
const (
	categoryPrefix    = "category:"
	subcategoryPrefix = "subcategory:"
	coursePrefix      = "course:"
	chapterPrefix     = "chapter:"
	userPrefix        = "user:"
	sessionPrefix     = "session:"

	indexSegment = "idx:"
)

// keyPool provides reusable byte slices for building lookup keys.
var keyPool = sync.Pool{
	New: func() any {
		// Prefix + "idx:" + index name + value + NanoID fits comfortably.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
//
// Pooled keys are only safe for reads (txn.Get, iterator seeks). Badger keeps a
// reference to the key passed to txn.Set and txn.Delete until commit, so writes
// must use a freshly allocated slice.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

// indexKey returns the unique index key for value.
func indexKey(prefix, indexName, value string) string {
	return prefix + indexSegment + indexName + ":" + value
}

// multiIndexKey returns the non-unique index key linking value to id.
func multiIndexKey(prefix, indexName, value, id string) string {
	return multiIndexPrefix(prefix, indexName, value) + id
}

// multiIndexPrefix returns the scan prefix for every id indexed under value.
func multiIndexPrefix(prefix, indexName, value string) string {
	return prefix + indexSegment + indexName + ":" + value + ":"
}

// orderKey is the per-course chapter order index value.
// Orders are zero-padded to the width of any positive int64 so the index
// sorts numerically.
func orderKey(courseID string, order int) string {
	return fmt.Sprintf("%s:%019d", courseID, order)
}
