package fuzzer

import (
	"math"
	"math/rand"
)

const (
	initialEpsilon = 0.9
	minEpsilon     = 0.05
	epsilonDecay   = 0.999
	learningRate   = 0.1
	baselineRate   = 0.01
)

// Scheduler learns which mutation strategies lead to accepted inputs. It
// keeps one preference per strategy, samples with epsilon-greedy softmax and
// applies a REINFORCE update against a running reward baseline.
type Scheduler struct {
	rng      *rand.Rand
	prefs    []float64
	epsilon  float64
	baseline float64
	picks    []uint64
	wins     []uint64
}

func NewScheduler(rng *rand.Rand) *Scheduler {
	return &Scheduler{
		rng:     rng,
		prefs:   make([]float64, numStrategies),
		epsilon: initialEpsilon,
		picks:   make([]uint64, numStrategies),
		wins:    make([]uint64, numStrategies),
	}
}

// Pick selects the next strategy.
func (s *Scheduler) Pick() Strategy {
	var st Strategy
	if s.rng.Float64() < s.epsilon {
		st = Strategy(s.rng.Intn(int(numStrategies)))
	} else {
		st = Strategy(sample(s.rng, softmax(s.prefs)))
	}
	s.picks[st]++
	return st
}

// Reward reports whether an input mutated with st was accepted.
func (s *Scheduler) Reward(st Strategy, accepted bool) {
	r := 0.0
	if accepted {
		r = 1.0
		s.wins[st]++
	}
	advantage := r - s.baseline
	s.baseline += baselineRate * (r - s.baseline)

	probs := softmax(s.prefs)
	for i := range s.prefs {
		if Strategy(i) == st {
			s.prefs[i] += learningRate * advantage * (1 - probs[i])
		} else {
			s.prefs[i] -= learningRate * advantage * probs[i]
		}
	}

	if s.epsilon > minEpsilon {
		s.epsilon *= epsilonDecay
	}
}

// Probabilities returns the current exploit distribution over strategies.
func (s *Scheduler) Probabilities() []float64 {
	return softmax(s.prefs)
}

// Wins returns how often each strategy produced an accepted input.
func (s *Scheduler) Wins() []uint64 {
	return append([]uint64(nil), s.wins...)
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, v := range scores {
		maxScore = math.Max(maxScore, v)
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, v := range scores {
		out[i] = math.Exp(v - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sample(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if r <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}
