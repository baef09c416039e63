package sim

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/meta"
)

func setup(t *testing.T) (*game.Service, *meta.State) {
	t.Helper()
	tables, err := content.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	return game.NewService(tables), meta.Default(tables.Balance.Progression)
}

func TestRunIndependentOfWorkers(t *testing.T) {
	svc, base := setup(t)
	opts := Options{Runs: 12, BaseSeed: 100, Difficulty: "less-easy"}

	var batches [][]Result
	for _, workers := range []int{1, 4} {
		opts.Workers = workers
		res, err := Run(context.Background(), svc, base, opts, nil)
		if err != nil {
			t.Fatalf("Run(workers=%d) failed: %v", workers, err)
		}
		batches = append(batches, res)
	}
	if !reflect.DeepEqual(batches[0], batches[1]) {
		t.Error("results depend on the worker count")
	}
	for i, r := range batches[0] {
		if r.Index != i || r.Seed != 100+uint32(i) {
			t.Errorf("result %d has index %d seed %d", i, r.Index, r.Seed)
		}
		if r.Truncated {
			t.Errorf("run %d did not finish", i)
		}
	}
	if base.Stats.Runs != 0 || len(base.Codex.Bosses) != 0 {
		t.Error("simulation modified the base ledger")
	}
}

func TestRunCyclesBiomes(t *testing.T) {
	svc, base := setup(t)
	res, err := Run(context.Background(), svc, base, Options{
		Runs:       4,
		Biomes:     []string{"crypt", "aurora"},
		Difficulty: "easy",
		MaxSteps:   3,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"crypt", "aurora", "crypt", "aurora"}
	for i, r := range res {
		if r.BiomeID != want[i] {
			t.Errorf("run %d biome = %s, want %s", i, r.BiomeID, want[i])
		}
		if !r.Truncated || r.Steps != 3 {
			t.Errorf("run %d: steps %d truncated %v", i, r.Steps, r.Truncated)
		}
	}
}

func TestRunErrors(t *testing.T) {
	svc, base := setup(t)

	empty := base.Clone()
	empty.Unlocks.Biomes = nil
	if _, err := Run(context.Background(), svc, empty, Options{Runs: 1, Difficulty: "easy"}, nil); !errors.Is(err, ErrNoBiomes) {
		t.Errorf("err = %v, want ErrNoBiomes", err)
	}

	if _, err := Run(context.Background(), svc, base, Options{Runs: 2, Difficulty: "nope"}, nil); !errors.Is(err, game.ErrUnknownDifficulty) {
		t.Errorf("err = %v, want ErrUnknownDifficulty", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, svc, base, Options{Runs: 3, Difficulty: "easy"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPolicy(t *testing.T) {
	svc, m := setup(t)
	brew, _ := svc.Tables().Item("healing-brew")
	idol, _ := svc.Tables().Item("gilded-idol")

	tests := []struct {
		name string
		run  game.Run
		want game.Action
	}{
		{
			name: "call",
			run:  game.Run{Boss: game.BossState{HP: 30, MaxHP: 30}, Player: game.PlayerState{BombReady: true}},
			want: game.Action{Kind: game.KindCall},
		},
		{
			name: "finishing bomb",
			run:  game.Run{Boss: game.BossState{HP: 8, MaxHP: 30}, Player: game.PlayerState{BombReady: true}},
			want: game.Action{Kind: game.KindBomb},
		},
		{
			name: "spent bomb",
			run:  game.Run{Boss: game.BossState{HP: 8, MaxHP: 30}},
			want: game.Action{Kind: game.KindCall},
		},
		{
			name: "buy first affordable",
			run: game.Run{
				AwaitingAdvance: true,
				ShopAvailable:   true,
				Player:          game.PlayerState{Coins: 3},
				Shop: []game.ShopOffer{
					{Item: *idol, Price: 1},
					{Item: *brew, Price: 5},
					{Item: *brew, Price: 3},
				},
			},
			want: game.Action{Kind: game.KindBuy, ItemID: "healing-brew"},
		},
		{
			name: "advance when broke",
			run: game.Run{
				AwaitingAdvance: true,
				ShopAvailable:   true,
				Shop:            []game.ShopOffer{{Item: *brew, Price: 3}},
			},
			want: game.Action{Kind: game.KindAdvance},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Policy(svc, m, &tt.run); got != tt.want {
				t.Errorf("Policy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	rep := Summarize([]Result{
		{BiomeID: "crypt", Victory: true, Floors: 4, Damage: 300, Calls: 80},
		{BiomeID: "aurora", Floors: 1, Damage: 50, Calls: 30},
		{BiomeID: "crypt", Floors: 2, Damage: 100, Calls: 40, Truncated: true},
		{BiomeID: "crypt", Floors: 1, Damage: 30, Calls: 10},
	})
	if rep.Runs != 4 || rep.Victories != 1 || rep.Truncated != 1 {
		t.Errorf("counts = %+v", rep)
	}
	if rep.WinRate != 0.25 || rep.AvgFloors != 2 || rep.AvgDamage != 120 || rep.AvgCalls != 40 {
		t.Errorf("averages = %+v", rep)
	}
	want := []BiomeReport{
		{BiomeID: "aurora", Runs: 1, AvgFloors: 1},
		{BiomeID: "crypt", Runs: 3, Victories: 1, AvgFloors: 7.0 / 3},
	}
	if !reflect.DeepEqual(rep.Biomes, want) {
		t.Errorf("biomes = %+v", rep.Biomes)
	}

	if empty := Summarize(nil); empty.Runs != 0 || empty.WinRate != 0 {
		t.Errorf("empty report = %+v", empty)
	}
}

func TestWriteCSV(t *testing.T) {
	var b strings.Builder
	err := WriteCSV(&b, []Result{
		{Seed: 4294967295, BiomeID: "crypt", DifficultyID: "hard", Victory: true, Floors: 4, Damage: 321, Calls: 99, Coins: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "seed,biome,difficulty,victory,floors,damage,calls,coins\n" +
		"4294967295,crypt,hard,true,4,321,99,20\n"
	if b.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", b.String(), want)
	}
}
