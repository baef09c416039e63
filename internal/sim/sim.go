// Package sim plays many seeded runs with a greedy policy to measure
// balance. Runs are independent and execute in parallel; results come back
// in run order so the output does not depend on the worker count.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// DefaultMaxSteps bounds a single simulated run.
const DefaultMaxSteps = 5000

// ErrNoBiomes is returned when there is nothing to simulate in.
var ErrNoBiomes = errors.New("sim: no biomes to simulate")

// Options configure a batch.
type Options struct {
	Runs       int
	BaseSeed   uint32
	Workers    int      // 0 means GOMAXPROCS
	Biomes     []string // empty means every biome unlocked in the base ledger
	Difficulty string
	MaxSteps   int // 0 means DefaultMaxSteps
}

// Result is the outcome of one simulated run.
type Result struct {
	Index        int
	Seed         uint32
	BiomeID      string
	DifficultyID string
	Victory      bool
	Floors       int
	Damage       int
	Calls        int
	Coins        int
	Steps        int
	Truncated    bool // hit MaxSteps before finishing
}

// Run simulates opts.Runs runs. Run i uses seed BaseSeed+i and biome
// Biomes[i%len(Biomes)], with its own generator and a clone of base.
func Run(ctx context.Context, svc *game.Service, base *meta.State, opts Options, logger *log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	biomes := opts.Biomes
	if len(biomes) == 0 {
		biomes = base.Unlocks.Biomes
	}
	if len(biomes) == 0 {
		return nil, ErrNoBiomes
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	results := make([]Result, max(opts.Runs, 0))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := game.Options{
				Seed:         opts.BaseSeed + uint32(i),
				BiomeID:      biomes[i%len(biomes)],
				DifficultyID: opts.Difficulty,
			}
			res, err := simulate(svc, base.Clone(), run, maxSteps)
			if err != nil {
				return fmt.Errorf("sim: run %d: %w", i, err)
			}
			res.Index = i
			results[i] = res
			logger.Debug("run simulated", "index", i, "seed", run.Seed, "biome", run.BiomeID, "victory", res.Victory, "floors", res.Floors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("simulation finished", "runs", len(results), "workers", workers)
	return results, nil
}

func simulate(svc *game.Service, m *meta.State, opts game.Options, maxSteps int) (Result, error) {
	r := rng.New(opts.Seed)
	run, err := svc.CreateRun(m, r, opts)
	if err != nil {
		return Result{}, err
	}

	steps := 0
	for ; steps < maxSteps && !run.Terminal(); steps++ {
		run = svc.Apply(m, run, r, Policy(svc, m, run))
	}

	res := Result{
		Seed:         opts.Seed,
		BiomeID:      opts.BiomeID,
		DifficultyID: opts.DifficultyID,
		Floors:       len(run.DefeatedBosses),
		Damage:       run.Metrics.DamageDealt,
		Calls:        run.Metrics.CallsMade,
		Coins:        run.Metrics.CoinsEarned,
		Steps:        steps,
		Truncated:    !run.Terminal(),
	}
	if run.Summary != nil {
		res.Victory = run.Summary.Victory
	}
	return res, nil
}

// Policy is the greedy player: bomb when it finishes the boss, otherwise
// call; between floors buy the first affordable offer, then advance.
func Policy(svc *game.Service, m *meta.State, run *game.Run) game.Action {
	if run.AwaitingAdvance {
		if run.ShopAvailable {
			for _, o := range run.Shop {
				if !o.Sold && !o.Locked && o.Price <= run.Player.Coins && m.ItemUnlocked(o.Item.ID) {
					return game.Action{Kind: game.KindBuy, ItemID: o.Item.ID}
				}
			}
		}
		return game.Action{Kind: game.KindAdvance}
	}
	if run.Player.BombReady && int(math.Round(float64(run.Boss.MaxHP)*0.25)) >= run.Boss.HP {
		return game.Action{Kind: game.KindBomb}
	}
	return game.Action{Kind: game.KindCall}
}
