// Package board builds bingo boards and enumerates their winning lines.
package board

import (
	"fmt"
	"sync"

	"github.com/vovakirdan/wingo/internal/rng"
)

// Cell is one square of the board.
type Cell struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Marked bool   `json:"marked"`
	Free   bool   `json:"free"`
	Column string `json:"column"`
	Status string `json:"status,omitempty"`
}

// Params controls board generation.
type Params struct {
	Size      int
	PerColumn int
	Distinct  int
	Columns   []string
}

// Build generates a size×size board. The first Distinct values of a shuffled
// 1..Size*PerColumn pool are repeated to fill every non-free cell, then the
// fill is shuffled into cell order. The center cell is free and pre-marked.
func Build(r *rng.Rng, p Params) []Cell {
	total := p.Size * p.Size
	free := Center(p.Size)

	pool := make([]int, p.Size*p.PerColumn)
	for i := range pool {
		pool[i] = i + 1
	}
	rng.Shuffle(r, pool)

	distinct := min(max(p.Distinct, 1), total, len(pool))
	fill := make([]int, 0, total-1)
	for i := 0; len(fill) < total-1; i++ {
		fill = append(fill, pool[i%distinct])
	}
	rng.Shuffle(r, fill)

	cells := make([]Cell, total)
	next := 0
	for i := range cells {
		cells[i] = Cell{
			ID:     fmt.Sprintf("cell-%d", i),
			Column: p.Columns[i%p.Size],
		}
		if i == free {
			cells[i].Free = true
			cells[i].Marked = true
			continue
		}
		cells[i].Number = fill[next]
		next++
	}
	return cells
}

// Center returns the index of the free cell.
func Center(size int) int {
	return size * size / 2
}

// DistinctFor returns how many distinct numbers populate a board on floor.
func DistinctFor(base, size, floor int) int {
	return min(size*size, base+(size+1)/2*floor)
}

// ShuffleDeck returns the full draw range 1..size*perColumn, shuffled.
func ShuffleDeck(r *rng.Rng, size, perColumn int) []int {
	deck := make([]int, size*perColumn)
	for i := range deck {
		deck[i] = i + 1
	}
	return rng.Shuffle(r, deck)
}

var (
	linesMu    sync.Mutex
	linesCache = map[int][][]int{}
)

// Lines returns the index sets of every row, column and both diagonals of a
// size×size board. Results are cached per size and must not be modified.
func Lines(size int) [][]int {
	linesMu.Lock()
	defer linesMu.Unlock()

	if lines, ok := linesCache[size]; ok {
		return lines
	}

	lines := make([][]int, 0, 2*size+2)
	for r := range size {
		row := make([]int, size)
		for c := range size {
			row[c] = r*size + c
		}
		lines = append(lines, row)
	}
	for c := range size {
		col := make([]int, size)
		for r := range size {
			col[r] = r*size + c
		}
		lines = append(lines, col)
	}
	diag := make([]int, size)
	anti := make([]int, size)
	for i := range size {
		diag[i] = i * (size + 1)
		anti[i] = (i + 1) * (size - 1)
	}
	lines = append(lines, diag, anti)

	linesCache[size] = lines
	return lines
}

// CountLines counts fully marked lines.
func CountLines(cells []Cell, size int) int {
	count := 0
	for _, line := range Lines(size) {
		complete := true
		for _, idx := range line {
			if idx >= len(cells) || !cells[idx].Marked {
				complete = false
				break
			}
		}
		if complete {
			count++
		}
	}
	return count
}

// Find returns the index of the cell with id, or -1.
func Find(cells []Cell, id string) int {
	for i := range cells {
		if cells[i].ID == id {
			return i
		}
	}
	return -1
}
