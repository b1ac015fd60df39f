package fuzzer

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"alma.local/evmfuzz/taint"
	"alma.local/evmfuzz/vm"
)

func newMutator(seed int64) *Mutator {
	return NewMutator(rand.New(rand.NewSource(seed)), MutatorConfig{
		Callers:    defaultCallers,
		Targets:    []common.Address{vm.VaultAddress, vm.RegistryAddress},
		Dictionary: vm.DemoDictionary,
		MaxActions: 4,
	})
}

func parentSeq() *vm.Sequence {
	data := make([]byte, 33)
	data[0] = vm.OpDeposit
	return &vm.Sequence{Actions: []vm.Action{
		{Caller: alice, To: vm.VaultAddress, Data: data},
		register(bob, "abc"),
	}}
}

func TestMutatorIsDeterministic(t *testing.T) {
	a, b := newMutator(7), newMutator(7)
	parent := parentSeq()
	for i := 0; i < 100; i++ {
		x, sx := a.Mutate(parent, nil, parent)
		y, sy := b.Mutate(parent, nil, parent)
		require.Equal(t, sx, sy)
		require.Equal(t, x, y)
	}
}

func TestMutatorLeavesParentIntact(t *testing.T) {
	m := newMutator(3)
	parent := parentSeq()
	want := parent.Clone()
	for i := 0; i < 200; i++ {
		out, _ := m.Mutate(parent, nil, parent)
		require.NotEmpty(t, out.Actions)
		require.LessOrEqual(t, len(out.Actions), 4)
	}
	require.Equal(t, want, parent)
}

func TestMutatorStrategies(t *testing.T) {
	m := newMutator(1)

	seq := parentSeq()
	m.truncate(seq)
	require.True(t, seq.IsStep())
	require.Len(t, seq.Actions, 1)

	seq = parentSeq()
	m.duplicate(seq)
	require.Len(t, seq.Actions, 3)

	seq = &vm.Sequence{Actions: []vm.Action{{To: vm.RegistryAddress, Data: []byte{vm.OpRegister}}}}
	m.mutateWord(seq)
	require.Len(t, seq.Actions[0].Data, 33)
	require.Equal(t, vm.OpRegister, seq.Actions[0].Data[0])

	seq = parentSeq()
	m.insertToken(seq)
	found := false
	for _, a := range seq.Actions {
		for _, tok := range vm.DemoDictionary {
			if string(a.Data[1:]) == string(tok) {
				found = true
			}
		}
	}
	require.True(t, found)
}

func TestDuplicateChangesCaller(t *testing.T) {
	m := newMutator(5)
	for i := 0; i < 20; i++ {
		seq := &vm.Sequence{Actions: []vm.Action{register(alice, "x")}}
		m.duplicate(seq)
		require.Len(t, seq.Actions, 2)
		require.NotEqual(t, alice, seq.Actions[1].Caller)
	}
}

func TestTaintedPositionStaysInsideFacts(t *testing.T) {
	m := newMutator(11)
	seq := parentSeq()
	facts := []taint.Fact{{Tx: 1, Offset: 1, Length: 3, Contract: vm.RegistryAddress}}

	hits := 0
	for i := 0; i < 200; i++ {
		tx, pos, ok := m.taintedPosition(seq, facts)
		if !ok {
			continue
		}
		hits++
		require.Equal(t, 1, tx)
		require.GreaterOrEqual(t, pos, 1)
		require.Less(t, pos, 4)
	}
	require.Positive(t, hits)

	_, _, ok := m.taintedPosition(seq, []taint.Fact{{Tx: 9, Length: 1}})
	require.False(t, ok)
}

func TestMutateEmptyParentGenerates(t *testing.T) {
	m := newMutator(2)
	out, s := m.Mutate(&vm.Sequence{}, nil, nil)
	require.Equal(t, StrategyInsert, s)
	require.NotEmpty(t, out.Actions)
	require.False(t, out.IsStep())
}
