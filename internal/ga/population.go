package ga

import (
	"sort"

	"asteroidsai/internal/nn"
)

// Agent represents an individual in the population
type Agent struct {
	Net     *nn.MLP
	Fitness float64
}

// Clone creates a deep copy of an agent
func (a *Agent) Clone() *Agent {
	return &Agent{
		Net:     a.Net.Clone(),
		Fitness: a.Fitness,
	}
}

// Population is the ordered set of agents of one generation
type Population struct {
	Agents []*Agent
}

// Size returns the population size
func (p *Population) Size() int {
	return len(p.Agents)
}

// Fitness returns the fitness vector in population order
func (p *Population) Fitness() []float64 {
	f := make([]float64, len(p.Agents))
	for i, a := range p.Agents {
		f[i] = a.Fitness
	}
	return f
}

// Best returns the agent with highest fitness; ties go to the lowest index
func (p *Population) Best() *Agent {
	if len(p.Agents) == 0 {
		return nil
	}
	best := p.Agents[0]
	for _, a := range p.Agents[1:] {
		if a.Fitness > best.Fitness {
			best = a
		}
	}
	return best
}

// TopK returns the top K agents by fitness without reordering the population
func (p *Population) TopK(k int) []*Agent {
	order := RankByFitness(p.Fitness())
	if k > len(order) {
		k = len(order)
	}
	top := make([]*Agent, k)
	for i := 0; i < k; i++ {
		top[i] = p.Agents[order[i]]
	}
	return top
}

// RankByFitness returns population indices sorted by fitness (descending).
// Equal fitness keeps population order.
func RankByFitness(fitness []float64) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return fitness[order[i]] > fitness[order[j]]
	})
	return order
}
