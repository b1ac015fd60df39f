package analyzer

import (
	"math"
	"sync"

	"alma.local/evmfuzz/tracer"
)

// smoothing is the Laplace pseudo-count applied to every (CID, value) pair.
const smoothing = 1.0

// Histogram represents the distribution of values for a specific CID.
type Histogram struct {
	Counts map[int64]uint64
	Total  uint64
}

func NewHistogram() *Histogram {
	return &Histogram{
		Counts: make(map[int64]uint64),
	}
}

// Add updates the histogram with a new value.
func (h *Histogram) Add(val int64) {
	h.Counts[val]++
	h.Total++
}

// Probability returns the raw frequency of val.
func (h *Histogram) Probability(val int64) float64 {
	if h.Total == 0 {
		return 0.0
	}
	return float64(h.Counts[val]) / float64(h.Total)
}

// Analyzer keeps the value distribution observed so far for every CID and
// scores new traces by how far they diverge from it.
type Analyzer struct {
	mu          sync.RWMutex
	model       map[uint64]*Histogram
	totalEvents uint64
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		model: make(map[uint64]*Histogram),
	}
}

// Dimensions returns the number of unique CIDs seen so far.
func (a *Analyzer) Dimensions() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.model)
}

// Events returns the number of trace entries folded into the model.
func (a *Analyzer) Events() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalEvents
}

// ScoreTrace computes the KL divergence of a single trace against the model.
// The model is updated afterwards if update is true.
func (a *Analyzer) ScoreTrace(trace []tracer.TraceEntry, update bool) float64 {
	return a.ScoreBatch([][]tracer.TraceEntry{trace}, update)
}

// ScoreBatch computes the KL divergence of a batch of traces against the model.
// The distribution is defined over (CID, value) pairs observed in the batch.
func (a *Analyzer) ScoreBatch(traces [][]tracer.TraceEntry, update bool) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := make(map[tracer.TraceEntry]uint64)
	var total uint64
	for _, trace := range traces {
		for _, entry := range trace {
			batch[entry]++
			total++
		}
	}
	if total == 0 {
		return 0.0
	}

	denom := float64(a.totalEvents) + smoothing*float64(len(batch))
	kl := 0.0
	for key, cnt := range batch {
		pBatch := float64(cnt) / float64(total)
		var seen uint64
		if hist, ok := a.model[key.CID]; ok {
			seen = hist.Counts[key.Value]
		}
		pModel := (float64(seen) + smoothing) / denom
		kl += pBatch * math.Log(pBatch/pModel)
	}

	if update {
		for key, cnt := range batch {
			hist, ok := a.model[key.CID]
			if !ok {
				hist = NewHistogram()
				a.model[key.CID] = hist
			}
			hist.Counts[key.Value] += cnt
			hist.Total += cnt
		}
		a.totalEvents += total
	}
	return kl
}
