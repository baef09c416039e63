package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Report aggregates a batch of results.
type Report struct {
	Runs      int
	Victories int
	Truncated int
	WinRate   float64
	AvgFloors float64
	AvgDamage float64
	AvgCalls  float64
	Biomes    []BiomeReport
}

// BiomeReport is the per-biome slice of a report.
type BiomeReport struct {
	BiomeID   string
	Runs      int
	Victories int
	AvgFloors float64
}

// Summarize aggregates results. Biomes are sorted by id.
func Summarize(results []Result) Report {
	rep := Report{Runs: len(results)}
	if len(results) == 0 {
		return rep
	}

	type acc struct{ runs, wins, floors int }
	per := make(map[string]*acc)
	var floors, damage, calls int
	for _, r := range results {
		if r.Victory {
			rep.Victories++
		}
		if r.Truncated {
			rep.Truncated++
		}
		floors += r.Floors
		damage += r.Damage
		calls += r.Calls

		a := per[r.BiomeID]
		if a == nil {
			a = &acc{}
			per[r.BiomeID] = a
		}
		a.runs++
		a.floors += r.Floors
		if r.Victory {
			a.wins++
		}
	}

	n := float64(len(results))
	rep.WinRate = float64(rep.Victories) / n
	rep.AvgFloors = float64(floors) / n
	rep.AvgDamage = float64(damage) / n
	rep.AvgCalls = float64(calls) / n

	for id, a := range per {
		rep.Biomes = append(rep.Biomes, BiomeReport{
			BiomeID:   id,
			Runs:      a.runs,
			Victories: a.wins,
			AvgFloors: float64(a.floors) / float64(a.runs),
		})
	}
	sort.Slice(rep.Biomes, func(i, j int) bool {
		return rep.Biomes[i].BiomeID < rep.Biomes[j].BiomeID
	})
	return rep
}

var csvHeader = []string{"seed", "biome", "difficulty", "victory", "floors", "damage", "calls", "coins"}

// WriteCSV writes one row per result after a header.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("sim: write csv: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.FormatUint(uint64(r.Seed), 10),
			r.BiomeID,
			r.DifficultyID,
			strconv.FormatBool(r.Victory),
			strconv.Itoa(r.Floors),
			strconv.Itoa(r.Damage),
			strconv.Itoa(r.Calls),
			strconv.Itoa(r.Coins),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sim: write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sim: write csv: %w", err)
	}
	return nil
}
