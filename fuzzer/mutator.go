package fuzzer

import (
	"math/rand"

	"github.com/ethereum/go-ethereum/common"

	"alma.local/evmfuzz/domains"
	"alma.local/evmfuzz/taint"
	"alma.local/evmfuzz/vm"
)

const (
	defaultMaxActions = 8
	wordOffset        = 1
	wordSize          = 32
)

// Strategy names a mutation applied by the Mutator.
type Strategy int

const (
	StrategyWord Strategy = iota
	StrategyByte
	StrategyInsert
	StrategyTruncate
	StrategySplice
	StrategyDictionary
	StrategyDuplicate
	numStrategies
)

func (s Strategy) String() string {
	switch s {
	case StrategyWord:
		return "word"
	case StrategyByte:
		return "byte"
	case StrategyInsert:
		return "insert"
	case StrategyTruncate:
		return "truncate"
	case StrategySplice:
		return "splice"
	case StrategyDictionary:
		return "dictionary"
	case StrategyDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// MutatorConfig configures a Mutator.
type MutatorConfig struct {
	Callers    []common.Address
	Targets    []common.Address
	Dictionary [][]byte
	MaxActions int
}

// Mutator derives new sequences from corpus parents. Given the same rng seed
// and the same calls it produces the same sequences.
type Mutator struct {
	rng        *rand.Rand
	callers    []common.Address
	targets    []common.Address
	dictionary [][]byte
	maxActions int
	sched      *Scheduler
}

func NewMutator(rng *rand.Rand, cfg MutatorConfig) *Mutator {
	if cfg.MaxActions <= 0 {
		cfg.MaxActions = defaultMaxActions
	}
	if len(cfg.Callers) == 0 {
		cfg.Callers = []common.Address{common.HexToAddress("0x1000")}
	}
	return &Mutator{
		rng:        rng,
		callers:    cfg.Callers,
		targets:    cfg.Targets,
		dictionary: cfg.Dictionary,
		maxActions: cfg.MaxActions,
		sched:      NewScheduler(rng),
	}
}

// Reward feeds the outcome of an input mutated with s back to the scheduler.
func (m *Mutator) Reward(s Strategy, accepted bool) {
	m.sched.Reward(s, accepted)
}

// Scheduler exposes the strategy scheduler for reporting.
func (m *Mutator) Scheduler() *Scheduler {
	return m.sched
}

// Generate returns a fresh complete sequence of one to three actions.
func (m *Mutator) Generate() *vm.Sequence {
	n := 1 + m.rng.Intn(3)
	if n > m.maxActions {
		n = m.maxActions
	}
	seq := &vm.Sequence{Actions: make([]vm.Action, n)}
	for i := range seq.Actions {
		seq.Actions[i] = m.randomAction()
	}
	return seq
}

// Mutate applies one strategy to a copy of parent. facts are the taint facts
// recorded for parent; calldata bytes they cover are preferred by byte
// mutation. donor is used for splicing and may be nil. The parent is never
// modified and the result is a complete sequence unless truncation marked it
// as a step.
func (m *Mutator) Mutate(parent *vm.Sequence, facts []taint.Fact, donor *vm.Sequence) (*vm.Sequence, Strategy) {
	if parent == nil || len(parent.Actions) == 0 {
		return m.Generate(), StrategyInsert
	}
	out := parent.Clone()
	out.Step = false

	s := m.sched.Pick()
	switch s {
	case StrategyWord:
		m.mutateWord(out)
	case StrategyByte:
		m.flipByte(out, facts)
	case StrategyInsert:
		m.insertAction(out)
	case StrategyTruncate:
		m.truncate(out)
	case StrategySplice:
		if donor == nil || len(donor.Actions) == 0 {
			m.insertAction(out)
			return out, StrategyInsert
		}
		m.splice(out, donor)
	case StrategyDictionary:
		m.insertToken(out)
	case StrategyDuplicate:
		m.duplicate(out)
	}
	return out, s
}

func (m *Mutator) randomAction() vm.Action {
	a := vm.Action{
		Caller: m.callers[m.rng.Intn(len(m.callers))],
		Data:   []byte{byte(1 + m.rng.Intn(2))},
	}
	if len(m.targets) > 0 {
		a.To = m.targets[m.rng.Intn(len(m.targets))]
	}
	switch {
	case len(m.dictionary) > 0 && m.rng.Intn(3) == 0:
		a.Data = append(a.Data, m.dictionary[m.rng.Intn(len(m.dictionary))]...)
	case m.rng.Intn(2) == 0:
		word := m.sampleWord()
		a.Data = append(a.Data, word[:]...)
	default:
		tail := make([]byte, 1+m.rng.Intn(8))
		m.rng.Read(tail)
		a.Data = append(a.Data, tail...)
	}
	if m.rng.Intn(2) == 0 {
		a.Value = domains.ByteContentBuckets[m.rng.Intn(len(domains.ByteContentBuckets))].Sample(m.rng)
	}
	return a
}

func (m *Mutator) sampleWord() [32]byte {
	b := domains.WordBuckets[m.rng.Intn(len(domains.WordBuckets))]
	return b.Sample(m.rng).Bytes32()
}

// mutateWord overwrites the first calldata word of an action with a value
// drawn from a word bucket.
func (m *Mutator) mutateWord(seq *vm.Sequence) {
	a := &seq.Actions[m.rng.Intn(len(seq.Actions))]
	if len(a.Data) < wordOffset+wordSize {
		a.Data = append(a.Data, make([]byte, wordOffset+wordSize-len(a.Data))...)
	}
	word := m.sampleWord()
	copy(a.Data[wordOffset:], word[:])
}

// flipByte changes one calldata byte, preferring bytes that fed a hash.
func (m *Mutator) flipByte(seq *vm.Sequence, facts []taint.Fact) {
	tx, pos, ok := m.taintedPosition(seq, facts)
	if !ok {
		tx = m.rng.Intn(len(seq.Actions))
		if len(seq.Actions[tx].Data) == 0 {
			seq.Actions[tx].Data = []byte{0}
		}
		pos = m.rng.Intn(len(seq.Actions[tx].Data))
	}
	data := seq.Actions[tx].Data
	if m.rng.Intn(2) == 0 {
		data[pos] ^= 1 << uint(m.rng.Intn(8))
		return
	}
	b := domains.ByteContentBuckets[m.rng.Intn(len(domains.ByteContentBuckets))]
	data[pos] = byte(b.Sample(m.rng).Uint64())
}

func (m *Mutator) taintedPosition(seq *vm.Sequence, facts []taint.Fact) (int, int, bool) {
	if len(facts) == 0 || m.rng.Intn(4) == 0 {
		return 0, 0, false
	}
	f := facts[m.rng.Intn(len(facts))]
	tx := int(f.Tx)
	if tx >= len(seq.Actions) || f.Length == 0 {
		return 0, 0, false
	}
	pos := int(f.Offset) + m.rng.Intn(int(f.Length))
	if pos >= len(seq.Actions[tx].Data) {
		return 0, 0, false
	}
	return tx, pos, true
}

func (m *Mutator) insertAction(seq *vm.Sequence) {
	if len(seq.Actions) >= m.maxActions {
		seq.Actions[m.rng.Intn(len(seq.Actions))] = m.randomAction()
		return
	}
	i := m.rng.Intn(len(seq.Actions) + 1)
	seq.Actions = append(seq.Actions, vm.Action{})
	copy(seq.Actions[i+1:], seq.Actions[i:])
	seq.Actions[i] = m.randomAction()
}

// truncate keeps a prefix and marks it as a step the scheduler may extend.
func (m *Mutator) truncate(seq *vm.Sequence) {
	if len(seq.Actions) > 1 {
		seq.Actions = seq.Actions[:1+m.rng.Intn(len(seq.Actions)-1)]
	}
	seq.Step = true
}

func (m *Mutator) splice(seq, donor *vm.Sequence) {
	cut := m.rng.Intn(len(seq.Actions) + 1)
	from := m.rng.Intn(len(donor.Actions))
	out := seq.Actions[:cut]
	for _, a := range donor.Actions[from:] {
		if len(out) >= m.maxActions {
			break
		}
		out = append(out, a.Clone())
	}
	if len(out) == 0 {
		out = append(out, donor.Actions[from].Clone())
	}
	seq.Actions = out
}

// insertToken replaces the calldata after the selector with a dictionary token.
func (m *Mutator) insertToken(seq *vm.Sequence) {
	if len(m.dictionary) == 0 {
		m.mutateWord(seq)
		return
	}
	a := &seq.Actions[m.rng.Intn(len(seq.Actions))]
	sel := byte(1)
	if len(a.Data) > 0 {
		sel = a.Data[0]
	}
	token := m.dictionary[m.rng.Intn(len(m.dictionary))]
	a.Data = append([]byte{sel}, token...)
}

// duplicate appends a copy of an action sent by a different caller.
func (m *Mutator) duplicate(seq *vm.Sequence) {
	a := seq.Actions[m.rng.Intn(len(seq.Actions))].Clone()
	var others []common.Address
	for _, c := range m.callers {
		if c != a.Caller {
			others = append(others, c)
		}
	}
	if len(others) > 0 {
		a.Caller = others[m.rng.Intn(len(others))]
	}
	if len(seq.Actions) >= m.maxActions {
		seq.Actions[len(seq.Actions)-1] = a
		return
	}
	seq.Actions = append(seq.Actions, a)
}
