// Trainer builds the bunk prediction model artifact.
//
// Usage:
//   go run cmd/trainer/main.go -out models/bunk_model.json
//
// This tool:
//  1. Generates synthetic labeled training data
//  2. Fits a logistic regression with gradient descent
//  3. Writes the model artifact JSON for bunkd to load at startup
//  4. Records the training run in the database (optional)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/model"
	"github.com/shouldibunk/bunkd/internal/repository"
	"github.com/shouldibunk/bunkd/internal/training"
)

func main() {
	samples := flag.Int("samples", 2000, "Number of synthetic samples to generate")
	seed := flag.Int64("seed", 42, "Random seed for generation and splitting")
	epochs := flag.Int("epochs", 500, "Gradient descent epochs")
	learningRate := flag.Float64("lr", 0.1, "Gradient descent learning rate")
	outPath := flag.String("out", "models/bunk_model.json", "Artifact output path")
	version := flag.String("version", "1.0.0", "Model version stamped into the artifact")
	dbPath := flag.String("db", "", "SQLite path to record the training run (empty = skip)")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║        BUNKD TRAINER - Model Pipeline         ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
	fmt.Printf("\nSamples:  %d\n", *samples)
	fmt.Printf("Seed:     %d\n", *seed)
	fmt.Printf("Epochs:   %d\n", *epochs)
	fmt.Printf("LR:       %.3f\n", *learningRate)
	fmt.Printf("Output:   %s\n", *outPath)
	fmt.Println()

	// Generate data
	fmt.Println("Generating synthetic training data...")
	data := training.Generate(training.GeneratorConfig{
		Samples: *samples,
		Seed:    *seed,
	})

	positives := 0
	for _, s := range data {
		positives += s.Label
	}
	fmt.Printf("✓ Generated %d samples (%d safe, %d not safe)\n",
		len(data), positives, len(data)-positives)

	// Fit the model
	fmt.Println("\nTraining logistic regression model...")
	start := time.Now()

	artifact, err := training.Train(data, training.TrainConfig{
		LearningRate: *learningRate,
		Epochs:       *epochs,
		TestFraction: 0.2,
		Seed:         *seed,
		Version:      *version,
	})
	if err != nil {
		fmt.Printf("ERROR: training failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Trained in %v\n", time.Since(start).Round(time.Millisecond))

	// Report metrics
	m := artifact.Metrics
	fmt.Println("\nModel Performance:")
	fmt.Printf("   Train Accuracy:  %.4f  (%d samples)\n", m.TrainAccuracy, m.TrainingSamples)
	fmt.Printf("   Test Accuracy:   %.4f  (%d samples)\n", m.TestAccuracy, m.TestSamples)
	fmt.Printf("   ROC AUC:         %.4f\n", m.AUC)

	fmt.Println("\nFeature Importance:")
	printImportance(artifact)

	// Write the artifact
	if dir := filepath.Dir(*outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("ERROR: failed to create output directory: %v\n", err)
			os.Exit(1)
		}
	}
	if err := model.SaveArtifact(*outPath, artifact); err != nil {
		fmt.Printf("ERROR: failed to save artifact: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n✓ Artifact saved to %s\n", *outPath)

	// Record the run
	if *dbPath != "" {
		if err := recordRun(*dbPath, *outPath, len(data), artifact); err != nil {
			fmt.Printf("WARNING: failed to record training run: %v\n", err)
		} else {
			fmt.Printf("✓ Training run recorded in %s\n", *dbPath)
		}
	}

	fmt.Println("\nDone. Restart bunkd to pick up the new artifact.")
}

func printImportance(artifact *domain.ModelArtifact) {
	type pair struct {
		name  string
		value float64
	}
	pairs := make([]pair, 0, len(artifact.FeatureImportance))
	for name, v := range artifact.FeatureImportance {
		pairs = append(pairs, pair{name, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value > pairs[j].value })

	for _, p := range pairs {
		fmt.Printf("   %-34s %.4f\n", p.name, p.value)
	}
}

func recordRun(dbPath, artifactPath string, samples int, artifact *domain.ModelArtifact) error {
	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: dbPath,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	return repo.SaveTrainingRun(context.Background(), &domain.TrainingRun{
		ID:           uuid.New().String(),
		ArtifactPath: artifactPath,
		Samples:      samples,
		Metrics:      artifact.Metrics,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}
