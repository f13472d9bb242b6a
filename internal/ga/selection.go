package ga

import (
	"fmt"
	"math/rand"
)

// Elites returns the indices of the top e individuals, best first
func Elites(fitness []float64, e int) ([]int, error) {
	if e < 0 || len(fitness) < e {
		return nil, fmt.Errorf("%w: %d individuals for %d elites", ErrEmptyPopulation, len(fitness), e)
	}
	return RankByFitness(fitness)[:e], nil
}

// TournamentSelect samples k distinct contenders and returns the fittest.
// Zero fitness marks a disqualified agent: such a winner is discarded and the
// tournament rerun, up to maxAttempts times.
func TournamentSelect(fitness []float64, k, maxAttempts int, rng *rand.Rand) (int, error) {
	n := len(fitness)
	if n == 0 {
		return 0, fmt.Errorf("%w: tournament over empty population", ErrEmptyPopulation)
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		contenders := sampleDistinct(n, k, rng)
		best := contenders[0]
		for _, c := range contenders[1:] {
			if fitness[c] > fitness[best] {
				best = c
			}
		}
		if fitness[best] != 0 {
			return best, nil
		}
	}
	return 0, fmt.Errorf("%w: no tournament winner with non-zero fitness after %d attempts", ErrEmptyPopulation, maxAttempts)
}

// SelectionPool returns the breeding pool as population indices: the elites
// first, then tournament winners until the pool holds target members.
func SelectionPool(fitness []float64, elites, k, target, maxAttempts int, rng *rand.Rand) ([]int, error) {
	pool, err := Elites(fitness, elites)
	if err != nil {
		return nil, err
	}
	for len(pool) < target {
		winner, err := TournamentSelect(fitness, k, maxAttempts, rng)
		if err != nil {
			return nil, err
		}
		pool = append(pool, winner)
	}
	return pool, nil
}

// SelectParents draws two distinct pool members uniformly at random
func SelectParents(pool []*Agent, rng *rand.Rand) (*Agent, *Agent, error) {
	if len(pool) < 2 {
		return nil, nil, fmt.Errorf("%w: breeding pool has %d members", ErrEmptyPopulation, len(pool))
	}
	pair := sampleDistinct(len(pool), 2, rng)
	return pool[pair[0]], pool[pair[1]], nil
}

// sampleDistinct draws k distinct indices from [0, n) with a partial Fisher-Yates shuffle
func sampleDistinct(n, k int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
