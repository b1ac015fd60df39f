package corpus

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
	"alma.local/evmfuzz/taint"
	"alma.local/evmfuzz/vm"
)

func testcase(t *testing.T, id string, withTaint bool) *feedback.Testcase {
	t.Helper()
	seq := &vm.Sequence{Actions: []vm.Action{
		{Caller: common.HexToAddress("0x1"), To: vm.RegistryAddress, Data: []byte{vm.OpRegister, 'a'}},
	}}
	tc := feedback.NewTestcase(id, seq, feedback.ExitOk)
	tc.SetMeta("new_cids", "3")
	if withTaint {
		snap := &taint.Snapshot{Round: 1, Facts: []taint.Fact{{Offset: 1, Length: 1, Contract: vm.RegistryAddress}}}
		raw, err := snap.MarshalSSZ()
		require.NoError(t, err)
		tc.TaintFacts = raw
	}
	return tc
}

func TestStoreInMemory(t *testing.T) {
	require := require.New(t)
	s, err := NewStore("")
	require.NoError(err)

	require.NoError(s.Add(testcase(t, "w0-1", false)))
	require.NoError(s.Add(testcase(t, "w0-2", true)))
	require.ErrorIs(s.Add(testcase(t, "w0-1", false)), ErrDuplicateID)

	require.Equal(2, s.Len())
	require.Equal(1, s.WithTaint())
	tc, ok := s.Get(1)
	require.True(ok)
	require.Equal("w0-2", tc.ID)
	_, ok = s.Get(2)
	require.False(ok)
	require.Len(s.All(), 2)
}

func TestStorePersists(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(err)

	require.NoError(s.Add(testcase(t, "w1-2", true)))
	require.NoError(s.Add(testcase(t, "w1-1", false)))

	entries, err := LoadEntries(dir)
	require.NoError(err)
	require.Len(entries, 2)
	require.Equal("w1-1", entries[0].ID)
	require.False(entries[0].HasTaint)
	require.True(entries[1].HasTaint)
	require.Equal("3", entries[1].Metadata["new_cids"])
	require.Equal("ok", entries[1].Exit)

	var seq vm.Sequence
	require.NoError(msgpack.Unmarshal(entries[1].Input, &seq))
	require.Equal([]byte{vm.OpRegister, 'a'}, seq.Actions[0].Data)

	snap, err := LoadTaint(dir, "w1-2")
	require.NoError(err)
	require.Equal(uint64(1), snap.Round)
	require.Len(snap.Facts, 1)
}

func TestStoreRejectsCorruptTaint(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	tc := testcase(t, "w0-1", false)
	tc.TaintFacts = []byte{1, 2, 3}
	require.ErrorIs(t, s.Add(tc), oracle.ErrInvalidInput)
	require.Zero(t, s.Len())
}
