package taint

import (
	"sync"

	"alma.local/evmfuzz/reexec"
	"alma.local/evmfuzz/vm"
)

var (
	_ reexec.TaintTracker = (*Tracker)(nil)
	_ vm.Observer         = (*Tracker)(nil)
)

// Tracker records which calldata bytes flow into keccak computations during a
// replay. Facts live for one replay: the owner resets the tracker before the
// next one. Writes come from a single replaying worker; the mutex only lets
// readers inspect facts between replays.
type Tracker struct {
	mu      sync.Mutex
	round   uint64
	facts   []Fact
	seen    map[Fact]struct{}
	dropped int
}

func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[Fact]struct{}),
	}
}

// OnHash records the provenance of one hash computation.
func (t *Tracker) OnHash(ev vm.HashEvent) {
	if ev.Length <= 0 || ev.Offset < 0 {
		return
	}
	f := Fact{
		Tx:       uint32(ev.Tx),
		Offset:   uint32(ev.Offset),
		Length:   uint32(ev.Length),
		Site:     ev.Site,
		Contract: ev.Contract,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[f]; ok {
		return
	}
	if len(t.facts) >= MaxFacts {
		t.dropped++
		return
	}
	t.seen[f] = struct{}{}
	t.facts = append(t.facts, f)
}

// Reset discards every fact and starts a new round.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.round++
	t.facts = t.facts[:0]
	clear(t.seen)
	t.dropped = 0
}

// Round returns the number of resets performed so far.
func (t *Tracker) Round() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.round
}

// Len returns the number of facts recorded since the last reset.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.facts)
}

// Dropped returns the number of facts discarded because MaxFacts was reached.
func (t *Tracker) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Facts returns a copy of the facts recorded since the last reset.
func (t *Tracker) Facts() []Fact {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Fact(nil), t.facts...)
}

// Snapshot captures the current round and its facts.
func (t *Tracker) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &Snapshot{
		Round: t.round,
		Facts: append([]Fact(nil), t.facts...),
	}
}
