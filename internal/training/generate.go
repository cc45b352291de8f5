// Package training implements the offline pipeline: synthetic data
// generation and logistic-regression fitting for the bunk prediction model.
package training

import (
	"math"
	"math/rand"

	"github.com/shouldibunk/bunkd/internal/domain"
)

// Sample is one labeled training example.
type Sample struct {
	Input domain.PredictionInput
	// Label is 1 when bunking was safe, 0 otherwise.
	Label int
}

// GeneratorConfig controls synthetic data generation.
type GeneratorConfig struct {
	Samples int
	Seed    int64
}

// DefaultGeneratorConfig returns the standard generation settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Samples: 2000,
		Seed:    42,
	}
}

// Generate produces synthetic labeled samples. Features follow realistic
// distributions (attendance normal around 80, exam distance exponential,
// syllabus completion beta-skewed toward done, performance normal around 75)
// and labels come from a noisy rule-based safety score.
//
// Deterministic for a fixed seed.
func Generate(cfg GeneratorConfig) []Sample {
	if cfg.Samples <= 0 {
		cfg.Samples = 2000
	}
	r := rand.New(rand.NewSource(cfg.Seed))

	samples := make([]Sample, 0, cfg.Samples)
	for i := 0; i < cfg.Samples; i++ {
		attendance := clamp(r.NormFloat64()*15+80, 30, 100)

		// Most exams are close. Day counts stay below 30 so the proximity
		// mapping round-trips: proximity = days/30, days = round(p*30).
		days := clamp(math.Round(r.ExpFloat64()*10), 1, 29)

		syllabus := clamp(betaSample(r, 2, 1.5)*100, 10, 100)
		performance := clamp(r.NormFloat64()*12+75, 40, 95)

		probSafe := safetyScore(attendance, days, syllabus, performance)
		probSafe = clamp(probSafe+r.NormFloat64()*0.1, 0.05, 0.95)

		label := 0
		if r.Float64() < probSafe {
			label = 1
		}

		samples = append(samples, Sample{
			Input: domain.PredictionInput{
				AttendancePercentage: attendance,
				ExamProximity:        days / 30,
				SyllabusCompletion:   syllabus,
				PastPerformance:      performance,
			},
			Label: label,
		})
	}

	return samples
}

// safetyScore is the rule-based labeling function: a base probability
// adjusted per factor, plus interaction effects.
func safetyScore(attendance, days, syllabus, performance float64) float64 {
	prob := 0.1

	switch {
	case attendance >= 90:
		prob += 0.4
	case attendance >= 80:
		prob += 0.25
	case attendance >= 75:
		prob += 0.1
	default:
		prob -= 0.2
	}

	switch {
	case days <= 2:
		prob -= 0.5
	case days <= 5:
		prob -= 0.3
	case days <= 10:
		prob -= 0.1
	default:
		prob += 0.2
	}

	switch {
	case syllabus >= 90:
		prob += 0.3
	case syllabus >= 70:
		prob += 0.15
	case syllabus >= 50:
		prob += 0.05
	default:
		prob -= 0.15
	}

	switch {
	case performance >= 85:
		prob += 0.2
	case performance >= 75:
		prob += 0.1
	case performance >= 65:
		prob += 0.05
	default:
		prob -= 0.1
	}

	// Interaction effects
	if attendance >= 85 && days > 15 {
		prob += 0.2
	}
	if attendance < 75 && days <= 5 {
		prob -= 0.3
	}
	if syllabus >= 90 && days <= 7 {
		prob += 0.15
	}

	return clamp(prob, 0.05, 0.95)
}

// betaSample draws from Beta(a, b) using Johnk's algorithm.
func betaSample(r *rand.Rand, a, b float64) float64 {
	for {
		u := math.Pow(r.Float64(), 1/a)
		v := math.Pow(r.Float64(), 1/b)
		if s := u + v; s > 0 && s <= 1 {
			return u / s
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
