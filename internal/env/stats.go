package env

import "gonum.org/v1/gonum/stat"

// DeathReason indicates how the episode ended
type DeathReason int

const (
	DeathNone      DeathReason = iota
	DeathBounds                // ship left the arena
	DeathCollision             // out of lives
	DeathTimeout               // tick cap reached
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathBounds:
		return "bounds"
	case DeathCollision:
		return "collision"
	case DeathTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Fitness         float64     `json:"fitness"`
	Score           float64     `json:"score"`
	Ticks           int         `json:"ticks"`
	Kills           int         `json:"kills"`
	LivesLeft       int         `json:"lives_left"`
	DistinctActions int         `json:"distinct_actions"`
	Death           DeathReason `json:"death"`
	Seed            uint32      `json:"seed"`
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	FitnessMean float64
	FitnessStd  float64
	ScoreMean   float64
	TicksMean   float64
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{DeathCounts: make(map[DeathReason]int)}
	n := len(episodes)
	if n == 0 {
		return agg
	}
	agg.NumEpisodes = n

	fitness := make([]float64, n)
	scores := make([]float64, n)
	ticks := make([]float64, n)
	for i, ep := range episodes {
		fitness[i] = ep.Fitness
		scores[i] = ep.Score
		ticks[i] = float64(ep.Ticks)
		agg.DeathCounts[ep.Death]++
	}

	agg.FitnessMean = stat.Mean(fitness, nil)
	agg.FitnessStd = stat.PopStdDev(fitness, nil)
	agg.ScoreMean = stat.Mean(scores, nil)
	agg.TicksMean = stat.Mean(ticks, nil)
	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.FitnessMean - lambda*a.FitnessStd
}
