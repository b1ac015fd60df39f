package tracer

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSnapshot(t *testing.T) {
	r := NewRing(8)

	r.Record(1, 100)
	r.Record(2, 200)
	r.Record(3, 300)

	expected := []TraceEntry{
		{CID: 1, Value: 100},
		{CID: 2, Value: 200},
		{CID: 3, Value: 300},
	}
	require.Equal(t, expected, r.Snapshot())
}

func TestReset(t *testing.T) {
	r := NewRing(8)
	r.Record(1, 100)
	r.Reset()

	require.Empty(t, r.Snapshot())
	require.Zero(t, r.Len())
}

func TestRingBufferWrapping(t *testing.T) {
	r := NewRing(5)
	require.Equal(t, 8, r.Cap())

	for i := 0; i < r.Cap()+10; i++ {
		r.Record(uint64(i), int64(i*10))
	}
	require.Len(t, r.Snapshot(), r.Cap())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRing(4)
	r.Record(7, 1)
	snap := r.Snapshot()
	r.Reset()
	r.Record(9, 2)

	require.Equal(t, uint64(7), snap[0].CID)
}

func TestToScalar(t *testing.T) {
	require.Equal(t, int64(0), ToScalar(nil))
	require.Equal(t, int64(1), ToScalar(true))
	require.Equal(t, int64(42), ToScalar(uint8(42)))
	require.Equal(t, int64(3), ToScalar([]int{1, 2, 3}))
	require.Equal(t, int64(5), ToScalar(uint256.NewInt(5)))
	require.Equal(t, ToScalar("abc"), ToScalar([]byte("abc")))
	require.NotEqual(t, ToScalar("abc"), ToScalar("abd"))
}
