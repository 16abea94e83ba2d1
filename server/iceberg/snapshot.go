package iceberg

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

var snapshotEntropyLock sync.Mutex

// NewSnapshotID generates a globally-unique 63-bit snapshot identifier from a
// high-entropy source: a ULID's millisecond timestamp in the high bits and
// its random payload filling the rest, masked to stay a positive int64 (Java
// readers treat snapshot-id as a signed long).
func NewSnapshotID() int64 {
	snapshotEntropyLock.Lock()
	id := ulid.Make()
	snapshotEntropyLock.Unlock()

	var v uint64
	for _, b := range id[:8] {
		v = v<<8 | uint64(b)
	}
	return int64(v & 0x7fffffffffffffff)
}
