package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/features"
)

// TrainConfig controls the logistic regression fit.
type TrainConfig struct {
	LearningRate float64
	Epochs       int
	TestFraction float64
	Seed         int64
	Version      string
}

// DefaultTrainConfig returns the standard training settings.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate: 0.1,
		Epochs:       500,
		TestFraction: 0.2,
		Seed:         42,
		Version:      "1.0.0",
	}
}

// Train fits a logistic regression on the samples and returns a model
// artifact ready for SaveArtifact. The feature engineering goes through
// features.Normalize so training and inference can never drift.
func Train(samples []Sample, cfg TrainConfig) (*domain.ModelArtifact, error) {
	if len(samples) < 10 {
		return nil, fmt.Errorf("need at least 10 samples, got %d", len(samples))
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 500
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}

	// Engineer features
	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = features.Normalize(s.Input).Values()
		y[i] = float64(s.Label)
	}

	// Shuffle and split holdout
	r := rand.New(rand.NewSource(cfg.Seed))
	perm := r.Perm(len(samples))
	testSize := int(float64(len(samples)) * cfg.TestFraction)
	if testSize < 1 {
		testSize = 1
	}

	trainX := make([][]float64, 0, len(samples)-testSize)
	trainY := make([]float64, 0, len(samples)-testSize)
	testX := make([][]float64, 0, testSize)
	testY := make([]float64, 0, testSize)
	for i, idx := range perm {
		if i < testSize {
			testX = append(testX, x[idx])
			testY = append(testY, y[idx])
		} else {
			trainX = append(trainX, x[idx])
			trainY = append(trainY, y[idx])
		}
	}

	// Fit scaler on the training split only
	scaler := fitScaler(trainX)
	scaledTrain := scaleAll(trainX, scaler)
	scaledTest := scaleAll(testX, scaler)

	// Gradient descent
	weights := make([]float64, features.FeatureCount)
	intercept := 0.0
	n := float64(len(scaledTrain))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, features.FeatureCount)
		gradB := 0.0

		for i, row := range scaledTrain {
			z := intercept
			for j, v := range row {
				z += weights[j] * v
			}
			diff := sigmoid(z) - trainY[i]
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}

		for j := range weights {
			weights[j] -= cfg.LearningRate * gradW[j] / n
		}
		intercept -= cfg.LearningRate * gradB / n
	}

	// Holdout metrics
	trainProbs := predictAll(scaledTrain, weights, intercept)
	testProbs := predictAll(scaledTest, weights, intercept)

	importance := make(map[string]float64, features.FeatureCount)
	for i, name := range features.Names {
		importance[name] = math.Abs(weights[i])
	}

	return &domain.ModelArtifact{
		ModelType:         "logistic_regression",
		Version:           cfg.Version,
		FeatureNames:      features.Names,
		Weights:           weights,
		Intercept:         intercept,
		Scaler:            scaler,
		FeatureImportance: importance,
		Metrics: domain.TrainingMetrics{
			TrainAccuracy:   accuracy(trainProbs, trainY),
			TestAccuracy:    accuracy(testProbs, testY),
			AUC:             rocAUC(testProbs, testY),
			TrainingSamples: len(scaledTrain),
			TestSamples:     len(scaledTest),
			TrainedAt:       time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// fitScaler computes per-feature z-score parameters.
// Constant features get std 1 so scaling stays defined.
func fitScaler(x [][]float64) domain.ScalerParams {
	mean := make([]float64, features.FeatureCount)
	std := make([]float64, features.FeatureCount)
	n := float64(len(x))

	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return domain.ScalerParams{Mean: mean, Std: std}
}

func scaleAll(x [][]float64, scaler domain.ScalerParams) [][]float64 {
	scaled := make([][]float64, len(x))
	for i, row := range x {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = (v - scaler.Mean[j]) / scaler.Std[j]
		}
		scaled[i] = out
	}
	return scaled
}

func predictAll(x [][]float64, weights []float64, intercept float64) []float64 {
	probs := make([]float64, len(x))
	for i, row := range x {
		z := intercept
		for j, v := range row {
			z += weights[j] * v
		}
		probs[i] = sigmoid(z)
	}
	return probs
}

// accuracy scores probabilities against labels at the 0.5 threshold.
func accuracy(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		pred := 0.0
		if p >= 0.5 {
			pred = 1.0
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// rocAUC computes the area under the ROC curve via the rank statistic.
// Returns 0.5 when one class is absent.
func rocAUC(probs, labels []float64) float64 {
	type scored struct {
		prob  float64
		label float64
	}
	items := make([]scored, len(probs))
	for i := range probs {
		items[i] = scored{probs[i], labels[i]}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].prob < items[j].prob })

	var nPos, nNeg, rankSum float64
	for i, it := range items {
		rank := float64(i + 1)
		if it.label == 1 {
			nPos++
			rankSum += rank
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
