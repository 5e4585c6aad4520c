package optimizer

import "math"

// featuresPerSlot is presence plus the five candidate attributes.
const featuresPerSlot = 6

func inputSize(width int) int {
	return 1 + width*featuresPerSlot
}

// encode scales an observation into network inputs. Salary is relative to the
// budget cap, box office is log-compressed, and the bounded attributes are
// mapped onto roughly [0, 1].
func encode(obs Observation, steps int, budgetCap float64) []float64 {
	x := make([]float64, inputSize(len(obs.Slots)))
	if steps > 0 {
		x[0] = float64(obs.Index) / float64(steps)
	}
	salaryScale := budgetCap
	if salaryScale <= 0 {
		salaryScale = 1_000_000
	}
	for i, s := range obs.Slots {
		if !s.Present {
			continue
		}
		base := 1 + i*featuresPerSlot
		x[base] = 1
		x[base+1] = math.Min(s.Salary/salaryScale, 10)
		x[base+2] = math.Log1p(math.Max(s.BoxOffice, 0)) / 25
		x[base+3] = s.Rating / 10
		x[base+4] = s.Versatility / 100
		x[base+5] = s.Risk
	}
	return x
}
