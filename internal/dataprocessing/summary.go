package dataprocessing

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes one cleaned file.
type Summary struct {
	Samples    int
	GridPoints int
	Matched    int
	Unmatched  int
	MaxTime    float64
	ArmPeak    float64
	ArmMean    float64
	LegPeak    float64
	LegMean    float64
}

// Summarize computes the per-file statistics logged by the cleaner.
// Peaks and means are taken over matched, rectified grid rows; blank
// signal cells are left out of their channel.
func Summarize(s *Series, t *Table) Summary {
	sum := Summary{
		Samples:    s.Len(),
		GridPoints: t.GridSize,
		Matched:    t.Matched,
		Unmatched:  t.Unmatched,
	}

	if maxTime, err := stats.Max(stats.Float64Data(s.Time)); err == nil {
		sum.MaxTime = maxTime
	}

	var arm, leg stats.Float64Data
	for _, r := range t.Rows {
		if !r.Matched {
			continue
		}
		if !math.IsNaN(r.Arm) {
			arm = append(arm, r.Arm)
		}
		if !math.IsNaN(r.Leg) {
			leg = append(leg, r.Leg)
		}
	}

	sum.ArmPeak, sum.ArmMean = peakAndMean(arm)
	sum.LegPeak, sum.LegMean = peakAndMean(leg)
	return sum
}

func peakAndMean(data stats.Float64Data) (float64, float64) {
	if data.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	peak, _ := data.Max()
	mean, _ := data.Mean()
	return peak, mean
}
