package dataprocessing

import (
	"math"
)

// Grid returns floor(maxTime)/step points i*step for i in [0, n).
// With the default 0.1 s step that is floor(maxTime)*10 points.
func Grid(maxTime, step float64) []float64 {
	if step <= 0 || math.IsNaN(maxTime) || maxTime < 1 {
		return nil
	}
	n := int(math.Round(math.Floor(maxTime) / step))
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	return grid
}

// NearestIndexer maps every target to the index of the nearest source value,
// or -1 when none lies within tolerance. source must be strictly increasing
// and targets sorted ascending.
//
// Candidates come from a forward fill and a backward fill, each allowed to
// reuse one source value for at most limit consecutive inexact targets
// (limit <= 0 means unlimited). Exact hits never count against the limit.
// On equal distance the later source value wins. The result holds at most one
// index per target.
func NearestIndexer(source, targets []float64, tolerance float64, limit int) []int {
	left := padIndexer(source, targets, limit)
	right := backfillIndexer(source, targets, limit)

	indexer := make([]int, len(targets))
	for j, target := range targets {
		l, r := left[j], right[j]
		pick := r
		if r == -1 || (l != -1 && distance(source, l, target) < distance(source, r, target)) {
			pick = l
		}
		if pick != -1 && distance(source, pick, target) > tolerance {
			pick = -1
		}
		indexer[j] = pick
	}
	return indexer
}

func distance(source []float64, i int, target float64) float64 {
	return math.Abs(source[i] - target)
}

// padIndexer assigns each target the last source value <= target.
func padIndexer(source, targets []float64, limit int) []int {
	n, m := len(source), len(targets)
	indexer := make([]int, m)
	for j := range indexer {
		indexer[j] = -1
	}
	if n == 0 || m == 0 || targets[m-1] < source[0] {
		return indexer
	}
	if limit <= 0 {
		limit = m
	}

	j := 0
	for j < m && targets[j] < source[0] {
		j++
	}

	for i := 0; i < n && j < m; i++ {
		cur := source[i]
		next := math.Inf(1)
		if i+1 < n {
			next = source[i+1]
		}
		filled := 0
		for j < m && targets[j] >= cur && targets[j] < next {
			switch {
			case targets[j] == cur:
				indexer[j] = i
			case filled < limit:
				indexer[j] = i
				filled++
			}
			j++
		}
	}
	return indexer
}

// backfillIndexer assigns each target the first source value >= target.
// It is padIndexer on the mirrored axis.
func backfillIndexer(source, targets []float64, limit int) []int {
	n, m := len(source), len(targets)

	mirroredSource := make([]float64, n)
	for i := range source {
		mirroredSource[i] = -source[n-1-i]
	}
	mirroredTargets := make([]float64, m)
	for j := range targets {
		mirroredTargets[j] = -targets[m-1-j]
	}

	mirrored := padIndexer(mirroredSource, mirroredTargets, limit)

	indexer := make([]int, m)
	for j := range indexer {
		k := mirrored[m-1-j]
		if k < 0 {
			indexer[j] = -1
		} else {
			indexer[j] = n - 1 - k
		}
	}
	return indexer
}

// Abs returns |v| for every value. NaN stays NaN, so Abs(Abs(x)) == Abs(x).
func Abs(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}

// Row is one grid point of a resampled table. Unmatched rows carry NaN signals.
type Row struct {
	Time    float64
	Arm     float64
	Leg     float64
	Source  int
	Matched bool
}

// Table is the resampled, rectified signal table.
type Table struct {
	Rows      []Row
	GridSize  int
	Matched   int
	Unmatched int
}

// ResampleOptions configures Resample.
type ResampleOptions struct {
	Step      float64
	Tolerance float64
	Limit     int
	// DropUnmatched removes grid points with no sample in tolerance
	// instead of keeping them with empty signals.
	DropUnmatched bool
}

// Resample aligns series to the uniform grid and rectifies both channels.
func Resample(s *Series, opts ResampleOptions) *Table {
	grid := Grid(s.MaxTime(), opts.Step)
	indexer := NearestIndexer(s.Time, grid, opts.Tolerance, opts.Limit)
	arm := Abs(s.Arm)
	leg := Abs(s.Leg)

	table := &Table{GridSize: len(grid), Rows: make([]Row, 0, len(grid))}
	for j, t := range grid {
		i := indexer[j]
		if i < 0 {
			table.Unmatched++
			if opts.DropUnmatched {
				continue
			}
			table.Rows = append(table.Rows, Row{Time: roundTime(t), Arm: math.NaN(), Leg: math.NaN(), Source: -1})
			continue
		}
		table.Matched++
		table.Rows = append(table.Rows, Row{Time: roundTime(t), Arm: arm[i], Leg: leg[i], Source: i, Matched: true})
	}
	return table
}

// roundTime strips binary noise from i*step (0.30000000000000004 -> 0.3).
func roundTime(t float64) float64 {
	return math.Round(t*1e6) / 1e6
}
