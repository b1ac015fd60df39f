package domains

import (
	"fmt"
	"math/rand"

	"github.com/holiman/uint256"
)

// BucketID uniquely identifies a bucket within a domain.
type BucketID string

// Range defines the numeric bounds of a bucket (inclusive).
type Range struct {
	Min *uint256.Int
	Max *uint256.Int
}

// Bucket represents a specific abstract value or range.
type Bucket struct {
	ID          BucketID
	Description string
	Range       Range
	Tag         string // e.g., "boundary", "power_of_2_range"
}

// Sample draws a value from the bucket.
func (b Bucket) Sample(rng *rand.Rand) *uint256.Int {
	if b.Range.Min.Eq(b.Range.Max) {
		return new(uint256.Int).Set(b.Range.Min)
	}
	r := &uint256.Int{rng.Uint64(), rng.Uint64(), rng.Uint64(), rng.Uint64()}
	span, overflow := new(uint256.Int).SubOverflow(b.Range.Max, b.Range.Min)
	if overflow {
		return r
	}
	span, overflow = new(uint256.Int).AddOverflow(span, uint256.NewInt(1))
	if overflow {
		// The bucket covers the whole word.
		return r
	}
	r.Mod(r, span)
	return r.Add(r, b.Range.Min)
}

// Contains reports whether v falls inside the bucket.
func (b Bucket) Contains(v *uint256.Int) bool {
	return !v.Lt(b.Range.Min) && !v.Gt(b.Range.Max)
}

// GenerateUintBuckets creates mutually exclusive buckets for unsigned integers
// of bitSize bits: 0, 1, then ranges whose upper bound grows by stride bits.
func GenerateUintBuckets(bitSize, stride int) []Bucket {
	if stride <= 0 {
		stride = 1
	}
	maxVal := new(uint256.Int).Not(new(uint256.Int))
	if bitSize < 256 {
		maxVal = new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitSize))
		maxVal.SubUint64(maxVal, 1)
	}

	buckets := []Bucket{
		{ID: "Zero", Description: "Value is 0", Range: Range{Min: uint256.NewInt(0), Max: uint256.NewInt(0)}, Tag: "boundary"},
	}
	if maxVal.IsZero() {
		return buckets
	}
	buckets = append(buckets, Bucket{ID: "One", Description: "Value is 1", Range: Range{Min: uint256.NewInt(1), Max: uint256.NewInt(1)}, Tag: "boundary"})

	lo := uint256.NewInt(2)
	for k := stride; k < bitSize && !lo.Gt(maxVal); k += stride {
		hi := new(uint256.Int).Lsh(uint256.NewInt(1), uint(k))
		hi.SubUint64(hi, 1)
		if hi.Lt(lo) {
			continue
		}
		buckets = append(buckets, Bucket{
			ID:          BucketID(fmt.Sprintf("bits<=%d", k)),
			Description: fmt.Sprintf("Range %s to %s", lo.Dec(), hi.Dec()),
			Range:       Range{Min: new(uint256.Int).Set(lo), Max: hi},
			Tag:         "power_of_2_range",
		})
		lo = new(uint256.Int).AddUint64(hi, 1)
	}

	below := new(uint256.Int).SubUint64(maxVal, 1)
	if !lo.Gt(below) {
		buckets = append(buckets, Bucket{
			ID:          BucketID(fmt.Sprintf("bits<=%d", bitSize)),
			Description: fmt.Sprintf("Remaining range %s to %s", lo.Dec(), below.Dec()),
			Range:       Range{Min: lo, Max: below},
			Tag:         "remaining_range",
		})
	}
	if maxVal.GtUint64(1) {
		buckets = append(buckets, Bucket{ID: "Max", Description: "Maximum value", Range: Range{Min: maxVal, Max: maxVal}, Tag: "boundary"})
	}
	return buckets
}

// WordBuckets partitions 256-bit words by byte width.
var WordBuckets = GenerateUintBuckets(256, 8)

// ByteContentBuckets partitions single calldata bytes.
var ByteContentBuckets = GenerateUintBuckets(8, 4)
