package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"asteroidsai/internal/config"
	"asteroidsai/internal/env"
	"asteroidsai/internal/logging"
	"asteroidsai/internal/nn"
	"asteroidsai/internal/storage"
)

var actionNames = []string{"LEFT", "RIGHT", "THRUST", "SHOOT"}

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/default.yaml", "path to config file")
	championPath := flag.String("champion", "artifacts/champion_final.json", "path to champion JSON")
	runID := flag.String("run", "", "load the champion of this run from the configured store instead")
	seed := flag.Uint("seed", 12345, "random seed for the game")
	trace := flag.Bool("trace", false, "print every tick")
	replayPath := flag.String("replay", "", "save the episode as a replay file")
	noTimeout := flag.Bool("no-timeout", false, "disable tick cap (play until death)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *noTimeout {
		cfg.Env.TickCap = 999999
	}

	net, gen, fitness, err := loadNetwork(cfg, *championPath, *runID)
	if err != nil {
		log.Fatalf("Error loading champion: %v", err)
	}
	if err := checkShape(net); err != nil {
		log.Fatalf("Champion does not fit the arena: %v", err)
	}
	fmt.Printf("Loaded champion from gen %d (fitness=%.2f, layers=%d)\n", gen, fitness, len(net.Layers))
	fmt.Printf("Config: %s, Seed: %d\n", *configPath, *seed)
	fmt.Println()

	settings := cfg.Env.Settings()
	game := env.NewGame(settings, uint32(*seed))
	replay := env.NewReplay(uint32(*seed), settings)

	for game.Alive {
		action, err := net.Decide(env.Observe(game))
		if err != nil {
			log.Fatalf("Network rejected observation: %v", err)
		}
		if *trace {
			printTick(game, action)
		}
		replay.Record(env.Action(action))
		game.Step(env.Action(action))
	}

	stats := game.Stats(uint32(*seed))
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Game Over! Death: %s\n", stats.Death)
	fmt.Printf("  Ticks: %d, Score: %.0f, Kills: %d\n", stats.Ticks, stats.Score, stats.Kills)
	fmt.Printf("  Lives left: %d, Distinct actions: %d\n", stats.LivesLeft, stats.DistinctActions)
	fmt.Println("═══════════════════════════════════")

	if *replayPath != "" {
		replay.SetFinalStats(stats)
		if err := replay.Save(*replayPath); err != nil {
			log.Printf("Warning: failed to save replay: %v", err)
		}
	}
}

// loadNetwork reads the champion from the store when runID is set, otherwise
// from a champion file
func loadNetwork(cfg *config.Config, path, runID string) (*nn.MLP, int, float64, error) {
	if runID == "" {
		champ, err := logging.LoadChampion(path)
		if err != nil {
			return nil, 0, 0, err
		}
		net, err := champ.Net()
		return net, champ.Generation, champ.Fitness, err
	}

	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, 0, 0, err
	}
	defer store.Close()

	rec, ok, err := store.GetChampion(ctx, runID)
	if err != nil {
		return nil, 0, 0, err
	}
	if !ok {
		return nil, 0, 0, fmt.Errorf("no champion stored for run %s", runID)
	}
	net, err := nn.Decode(rec.Network)
	return net, rec.Generation, rec.Fitness, err
}

// checkShape rejects networks that cannot read the observation or whose
// outputs do not map onto the ship's actions
func checkShape(net *nn.MLP) error {
	if net.InputSize() != env.ObsDim {
		return fmt.Errorf("network reads %d inputs, observation has %d", net.InputSize(), env.ObsDim)
	}
	if net.OutputSize() != env.NumActions {
		return fmt.Errorf("network has %d outputs, ship has %d actions", net.OutputSize(), env.NumActions)
	}
	return nil
}

func printTick(g *env.Game, action int) {
	nearest := "none"
	if a, dist := g.Nearest(); a != nil {
		nearest = fmt.Sprintf("%.0f px", dist)
	}
	fmt.Printf("  Tick: %4d | Score: %5.0f | Lives: %d | Rocks: %2d | Nearest: %-12s | Action: %s\n",
		g.Tick, g.Score, g.Lives, len(g.Asteroids), nearest, actionNames[action])
}
