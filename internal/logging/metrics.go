package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"asteroidsai/internal/env"
	"asteroidsai/internal/ga"
)

// Logger handles all training output and artifact saving
type Logger struct {
	csvPath     string
	jsonPath    string
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	console     io.Writer
	initialized bool
}

// NewLogger creates a new logger
func NewLogger(csvPath, jsonPath string) (*Logger, error) {
	l := &Logger{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		console:  os.Stdout,
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}

	return l, nil
}

// SetConsole redirects the human-readable progress lines
func (l *Logger) SetConsole(w io.Writer) {
	l.console = w
}

// Init initializes the log files
func (l *Logger) Init() error {
	var err error

	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)

	header := []string{
		"generation", "best_fitness", "mean_fitness", "std_fitness", "disqualified",
		"mutation_rate", "mutation_strength",
	}
	if err := l.csvWriter.Write(header); err != nil {
		return err
	}

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	l.initialized = true
	return nil
}

// Close closes all log files
func (l *Logger) Close() {
	if l.csvWriter != nil {
		l.csvWriter.Flush()
	}
	if l.csvFile != nil {
		l.csvFile.Close()
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
	}
}

// GenerationSummary holds per-generation statistics
type GenerationSummary struct {
	Generation       int     `json:"generation"`
	BestFitness      float64 `json:"best_fitness"`
	MeanFitness      float64 `json:"mean_fitness"`
	StdFitness       float64 `json:"std_fitness"`
	Disqualified     int     `json:"disqualified"` // members that scored the zero sentinel
	MutationRate     float64 `json:"mutation_rate"`
	MutationStrength float64 `json:"mutation_strength"`
}

// Summarize computes the summary of one evaluated generation
func Summarize(gs ga.GenerationStats, s ga.Schedule) GenerationSummary {
	summary := GenerationSummary{
		Generation:       gs.Generation,
		BestFitness:      gs.Max,
		MeanFitness:      gs.Mean,
		StdFitness:       stat.PopStdDev(gs.Fitness, nil),
		MutationRate:     s.Rate,
		MutationStrength: s.Strength,
	}
	for _, f := range gs.Fitness {
		if f == 0 {
			summary.Disqualified++
		}
	}
	return summary
}

// LogGeneration logs a generation summary
func (l *Logger) LogGeneration(summary GenerationSummary) error {
	if !l.initialized {
		return nil
	}

	row := []string{
		strconv.Itoa(summary.Generation),
		fmt.Sprintf("%.4f", summary.BestFitness),
		fmt.Sprintf("%.4f", summary.MeanFitness),
		fmt.Sprintf("%.4f", summary.StdFitness),
		strconv.Itoa(summary.Disqualified),
		fmt.Sprintf("%.4f", summary.MutationRate),
		fmt.Sprintf("%.4f", summary.MutationStrength),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return err
	}
	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		return err
	}

	jsonLine, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	if _, err := l.jsonFile.Write(append(jsonLine, '\n')); err != nil {
		return err
	}

	fmt.Fprintf(l.console, "Gen %4d | Best: %9.2f | Mean: %9.2f | Std: %8.2f | DQ: %3d | Rate: %.3f | Strength: %.3f\n",
		summary.Generation, summary.BestFitness, summary.MeanFitness, summary.StdFitness,
		summary.Disqualified, summary.MutationRate, summary.MutationStrength)
	return nil
}

// LogBenchmark logs benchmark results
func (l *Logger) LogBenchmark(gen int, results []env.AggregatedStats) {
	if len(results) == 0 {
		return
	}

	// Average across all benchmarked agents
	var avgFitness, avgTicks float64
	for _, r := range results {
		avgFitness += r.FitnessMean
		avgTicks += r.TicksMean
	}
	avgFitness /= float64(len(results))
	avgTicks /= float64(len(results))

	fmt.Fprintf(l.console, "  [Benchmark] Gen %d: Avg Fitness=%.2f, Avg Ticks=%.1f\n", gen, avgFitness, avgTicks)
}

// LogTopK logs debug info for top K agents
func (l *Logger) LogTopK(agents []*ga.Agent, k int) {
	if k > len(agents) {
		k = len(agents)
	}
	fmt.Fprintf(l.console, "  Top %d agents:\n", k)
	for i := 0; i < k; i++ {
		fmt.Fprintf(l.console, "    #%d: Fitness=%.2f\n", i+1, agents[i].Fitness)
	}
}
