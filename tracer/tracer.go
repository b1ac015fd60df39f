package tracer

import (
	"reflect"

	"github.com/holiman/uint256"
)

// TraceEntry represents a single data point in the execution trace.
type TraceEntry struct {
	CID   uint64
	Value int64
}

// DefaultSize is the ring capacity used by NewRing when size is not positive.
// We use a power of 2 size for bitwise masking.
const DefaultSize = 1 << 16

// Ring is a circular buffer for storing the coverage trace of one execution.
// Each worker owns its ring; it is not safe for concurrent use.
type Ring struct {
	buf   []TraceEntry
	mask  uint64
	index uint64
}

// NewRing creates a ring holding at least size entries, rounded up to a power of 2.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring{
		buf:  make([]TraceEntry, n),
		mask: uint64(n - 1),
	}
}

// Record captures a single execution point.
// cid: Context ID (hash of location+variable)
// val: The value observed
func (r *Ring) Record(cid uint64, val int64) {
	r.buf[r.index&r.mask] = TraceEntry{CID: cid, Value: val}
	r.index++
}

// Reset clears the trace index.
func (r *Ring) Reset() {
	r.index = 0
}

// Len returns the number of valid entries.
func (r *Ring) Len() int {
	if r.index > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(r.index)
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Snapshot returns a copy of the valid part of the buffer.
// Once the ring has wrapped, the full buffer is returned in slot order.
func (r *Ring) Snapshot() []TraceEntry {
	n := r.Len()
	if n == 0 {
		return nil
	}
	out := make([]TraceEntry, n)
	copy(out, r.buf[:n])
	return out
}

// ToScalar converts various types to an int64 representation for the tracer.
// This is a helper to avoid complex type checking in the instrumentor.
// It is optimized for speed.
func ToScalar(v any) int64 {
	if v == nil {
		return 0
	}
	// Fast path for common types
	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case uint64:
		return int64(val) // bitwise cast essentially
	case int32:
		return int64(val)
	case uint32:
		return int64(val)
	case int16:
		return int64(val)
	case uint16:
		return int64(val)
	case int8:
		return int64(val)
	case uint8:
		return int64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		return hashSampled([]byte(val))
	case []byte:
		return hashSampled(val)
	case *uint256.Int:
		if val == nil {
			return 0
		}
		return int64(val.Uint64())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return int64(rv.Len())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		// Dereferencing might cycle; presence is enough.
		return 1
	case reflect.Struct:
		return 1
	}

	return 0
}

// hashSampled is FNV-1a over the first and last 8 bytes plus the length.
func hashSampled(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	const (
		fnvOffset64 = 1469598103934665603
		fnvPrime64  = 1099511628211
		maxSample   = 8
	)
	h := uint64(fnvOffset64)
	limit := min(len(b), maxSample)
	for i := 0; i < limit; i++ {
		h ^= uint64(b[i])
		h *= fnvPrime64
	}
	if len(b) > maxSample {
		for i := len(b) - maxSample; i < len(b); i++ {
			h ^= uint64(b[i])
			h *= fnvPrime64
		}
	}
	h ^= uint64(len(b))
	return int64(h)
}
