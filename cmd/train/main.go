package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"asteroidsai/internal/config"
	"asteroidsai/internal/eval"
	"asteroidsai/internal/ga"
	"asteroidsai/internal/logging"
	"asteroidsai/internal/nn"
	"asteroidsai/internal/storage"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/default.yaml", "path to config file (.yaml or .ini)")
	generations := flag.Int("generations", 500, "number of generations to run")
	population := flag.Int("population", 0, "override the configured population size")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *population > 0 {
		cfg.GA.Population = *population
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid population override: %v", err)
		}
	}
	rawConfig, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}

	arch, err := cfg.Architecture()
	if err != nil {
		log.Fatalf("Error building architecture: %v", err)
	}
	probe, err := arch.New(rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		log.Fatalf("Error building network: %v", err)
	}

	fmt.Println("Asteroids AI Trainer")
	fmt.Printf("Config: %s\n", *configPath)
	fmt.Printf("Layers: %v, Activations: %v\n", cfg.LayerSizes(), cfg.NN.Activations)
	fmt.Printf("Genome size: %s parameters\n", humanize.Comma(int64(probe.GenomeSize())))
	fmt.Printf("Population: %d, Elites: %d, Tournament K: %d\n", cfg.GA.Population, cfg.GA.Elites, cfg.GA.TournamentK)

	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("Error creating store: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		log.Fatalf("Error opening store: %v", err)
	}
	defer store.Close()

	runID := storage.NewRunID()
	startTime := time.Now()
	if err := store.SaveRun(ctx, storage.Run{ID: runID, Seed: cfg.Seed, StartedAt: startTime, Config: rawConfig}); err != nil {
		log.Fatalf("Error recording run: %v", err)
	}
	fmt.Printf("Run: %s (storage: %s)\n", runID, cfg.Storage.Backend)
	fmt.Println("---")

	logger, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	if err := logger.Init(); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Close()

	evaluator := eval.NewEvaluator(cfg)
	engine := ga.NewEngine(evaluator, cfg.GAParams(), nil)
	factory := func(rng *rand.Rand) (*nn.MLP, error) { return arch.New(rng) }
	if err := engine.Initialize(cfg.GA.Population, factory); err != nil {
		log.Fatalf("Error initializing population: %v", err)
	}

	tracker := newChampionTracker()
	for gen := 1; gen <= *generations; gen++ {
		schedule := engine.Schedule()
		stats, err := engine.AdvanceGeneration()
		if err != nil {
			log.Fatalf("Generation %d failed: %v", gen, err)
		}

		summary := logging.Summarize(stats, schedule)
		if cfg.Logging.EveryGenSummary {
			if err := logger.LogGeneration(summary); err != nil {
				log.Printf("Warning: failed to log generation: %v", err)
			}
		}
		rec := storage.GenerationRecord{
			Generation:   summary.Generation,
			Best:         summary.BestFitness,
			Mean:         summary.MeanFitness,
			Std:          summary.StdFitness,
			Disqualified: summary.Disqualified,
		}
		if err := store.AppendGeneration(ctx, runID, rec); err != nil {
			log.Printf("Warning: failed to store generation: %v", err)
		}

		// Elites lead the bred population with their evaluated fitness
		elites := engine.Population().Agents[:cfg.GA.Elites]

		if gen%10 == 0 && cfg.Logging.TopNDebug > 0 {
			logger.LogTopK(elites, cfg.Logging.TopNDebug)
		}

		champion := engine.Champion()
		if tracker.observe(champion, stats.Generation) {
			if err := storeChampion(ctx, store, runID, champion, tracker.generation); err != nil {
				log.Printf("Warning: failed to store champion: %v", err)
			}
		}

		if cfg.Eval.BenchmarkEvery > 0 && gen%cfg.Eval.BenchmarkEvery == 0 {
			nets := make([]*nn.MLP, len(elites))
			for i, a := range elites {
				nets[i] = a.Net
			}
			results, err := evaluator.RunBenchmark(nets)
			if err != nil {
				log.Printf("Warning: benchmark failed: %v", err)
			} else {
				logger.LogBenchmark(gen, results)
			}
		}

		if champion == nil {
			continue
		}

		if cfg.Logging.SaveChampionEvery > 0 && gen%cfg.Logging.SaveChampionEvery == 0 {
			championPath := filepath.Join(cfg.Logging.ArtifactsDir, fmt.Sprintf("champion_gen%d.json", stats.Generation))
			if err := logging.SaveChampion(championPath, champion, tracker.generation); err != nil {
				log.Printf("Warning: failed to save champion: %v", err)
			}
		}

		if cfg.Logging.ReplayEvery > 0 && gen%cfg.Logging.ReplayEvery == 0 {
			// same field the generation was evaluated on
			genSeed := uint32(cfg.Seed + int64(stats.Generation))
			replay, _, err := evaluator.EvaluateWithReplay(champion.Net, genSeed)
			if err != nil {
				log.Printf("Warning: failed to record replay: %v", err)
				continue
			}
			replayPath := filepath.Join(cfg.Logging.ArtifactsDir, fmt.Sprintf("replay_gen%d.json", stats.Generation))
			if err := replay.Save(replayPath); err != nil {
				log.Printf("Warning: failed to save replay: %v", err)
			}
		}
	}

	elapsed := time.Since(startTime)
	fmt.Println("---")
	fmt.Printf("Training complete! %d generations in %v\n", *generations, elapsed.Round(time.Millisecond))

	champion := engine.Champion()
	if champion == nil {
		return
	}
	fmt.Printf("Best ever: Fitness=%.2f\n", champion.Fitness)

	championPath := filepath.Join(cfg.Logging.ArtifactsDir, "champion_final.json")
	if err := logging.SaveChampion(championPath, champion, tracker.generation); err != nil {
		log.Printf("Warning: failed to save final champion: %v", err)
	}
	if err := storeChampion(ctx, store, runID, champion, tracker.generation); err != nil {
		log.Printf("Warning: failed to store final champion: %v", err)
	}
}

// championTracker follows the engine's best-ever agent and the generation,
// counted from 0 like GenerationStats, in which it was evaluated
type championTracker struct {
	best       float64
	generation int
}

func newChampionTracker() *championTracker {
	return &championTracker{best: math.Inf(-1)}
}

// observe reports whether champion beats every fitness seen so far
func (c *championTracker) observe(champion *ga.Agent, generation int) bool {
	if champion == nil || champion.Fitness <= c.best {
		return false
	}
	c.best = champion.Fitness
	c.generation = generation
	return true
}

// storeChampion persists the encoded champion network under the run id
func storeChampion(ctx context.Context, store storage.Store, runID string, champion *ga.Agent, gen int) error {
	blob, err := champion.Net.MarshalBinary()
	if err != nil {
		return err
	}
	if err := store.SaveChampion(ctx, storage.ChampionRecord{
		RunID:      runID,
		Generation: gen,
		Fitness:    champion.Fitness,
		Network:    blob,
	}); err != nil {
		return err
	}
	fmt.Printf("  New champion: Fitness=%.2f (%s)\n", champion.Fitness, humanize.Bytes(uint64(len(blob))))
	return nil
}
