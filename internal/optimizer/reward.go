package optimizer

import (
	"castos/internal/casting"
)

const (
	boxOfficeRetention = 0.7
	ratingPivot        = 7.0
	ratingLift         = 0.1
	boxOfficeScale     = 1_000_000
	ratingWeight       = 10
	versatilityWeight  = 0.5
	riskWeight         = 50
	overflowScale      = 100_000
)

// Breakdown holds the aggregates behind a cast score.
type Breakdown struct {
	TotalSalary     float64
	AvgRating       float64
	AvgVersatility  float64
	TotalRisk       float64
	RawBoxOffice    float64
	FinalBoxOffice  float64
	OverflowPenalty float64
	Score           float64
}

// Evaluate scores a full cast. Placeholders count toward the averages with
// zero attributes. The overflow penalty applies only when total salary is
// strictly greater than budgetCap.
func Evaluate(picks []casting.Candidate, budgetCap float64) Breakdown {
	var b Breakdown
	if len(picks) == 0 {
		return b
	}
	var ratingSum, versSum float64
	for _, p := range picks {
		b.TotalSalary += p.Salary
		b.RawBoxOffice += p.BoxOffice
		b.TotalRisk += p.Risk
		ratingSum += p.Rating
		versSum += p.Versatility
	}
	n := float64(len(picks))
	b.AvgRating = ratingSum / n
	b.AvgVersatility = versSum / n
	b.FinalBoxOffice = b.RawBoxOffice * boxOfficeRetention * (1 + (b.AvgRating-ratingPivot)*ratingLift)

	b.Score = b.FinalBoxOffice/boxOfficeScale +
		b.AvgRating*ratingWeight +
		b.AvgVersatility*versatilityWeight -
		b.TotalRisk*riskWeight
	if b.TotalSalary > budgetCap {
		b.OverflowPenalty = (b.TotalSalary - budgetCap) / overflowScale
		b.Score -= b.OverflowPenalty
	}
	return b
}

// Score is the terminal reward for a full cast.
func Score(picks []casting.Candidate, budgetCap float64) float64 {
	return Evaluate(picks, budgetCap).Score
}
