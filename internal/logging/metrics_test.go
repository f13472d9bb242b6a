package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteroidsai/internal/env"
	"asteroidsai/internal/ga"
	"asteroidsai/internal/nn"
)

func TestSummarize(t *testing.T) {
	s := Summarize(ga.GenerationStats{
		Generation: 3,
		Max:        4,
		Mean:       2,
		Fitness:    []float64{0, 4, 2, 2},
	}, ga.Schedule{Rate: 0.1, Strength: 0.5})

	assert.Equal(t, 3, s.Generation)
	assert.Equal(t, 1, s.Disqualified)
	assert.InDelta(t, 1.4142135623730951, s.StdFitness, 1e-12)
	assert.Equal(t, 0.5, s.MutationStrength)
}

func TestLoggerWritesCSVAndJSONL(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "runs", "run.csv")
	jsonPath := filepath.Join(dir, "runs", "run.jsonl")

	l, err := NewLogger(csvPath, jsonPath)
	require.NoError(t, err)
	var console bytes.Buffer
	l.SetConsole(&console)
	require.NoError(t, l.Init())

	for gen := 0; gen < 2; gen++ {
		require.NoError(t, l.LogGeneration(GenerationSummary{Generation: gen, BestFitness: float64(gen + 1)}))
	}
	l.LogBenchmark(1, []env.AggregatedStats{{FitnessMean: 3, TicksMean: 10}})
	l.LogTopK([]*ga.Agent{{Fitness: 2}, {Fitness: 1}}, 5)
	l.Close()

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "generation", rows[0][0])
	assert.Equal(t, "2.0000", rows[2][1])

	jf, err := os.Open(jsonPath)
	require.NoError(t, err)
	defer jf.Close()
	var lines []GenerationSummary
	sc := bufio.NewScanner(jf)
	for sc.Scan() {
		var s GenerationSummary
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		lines = append(lines, s)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[1].Generation)

	assert.Contains(t, console.String(), "Gen    1")
	assert.Contains(t, console.String(), "[Benchmark] Gen 1")
	assert.Contains(t, console.String(), "Top 2 agents")
}

func TestChampionRoundTrip(t *testing.T) {
	arch := nn.Architecture{Sizes: []int{5, 6, 4}, Activations: []nn.Activation{nn.ReLU, nn.Softmax}}
	net, err := arch.New(rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifacts", "champion.json")
	require.NoError(t, SaveChampion(path, &ga.Agent{Net: net, Fitness: 12.5}, 40))

	champ, err := LoadChampion(path)
	require.NoError(t, err)
	assert.Equal(t, 40, champ.Generation)
	assert.Equal(t, 12.5, champ.Fitness)

	loaded, err := champ.Net()
	require.NoError(t, err)
	for i := range net.Layers {
		assert.Equal(t, net.Layers[i].WeightData(), loaded.Layers[i].WeightData())
	}
}
