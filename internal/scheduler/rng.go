package scheduler

import (
	"math/rand"
	"time"
)

// newSeededRand builds a private RNG stream. A nil seed falls back to a
// time-derived seed, which trades determinism for run-to-run variety; pass
// an explicit seed whenever reproducibility matters.
func newSeededRand(seed *int64) *rand.Rand {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return rand.New(rand.NewSource(s))
}

// workerRand splits a run seed into one independent stream per index i
// (population slot, worker, or any other parallel unit keyed by a small
// integer). The split policy is deliberately simple and documented so runs
// stay reproducible across worker-count changes so long as the logical
// assignment to streams is unchanged: stream i uses seed*31 + int64(i) as
// its source seed.
func workerRand(runSeed int64, i int) *rand.Rand {
	return rand.New(rand.NewSource(runSeed*31 + int64(i)))
}
