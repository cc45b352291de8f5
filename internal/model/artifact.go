// Package model wraps the trained logistic classifier and feature scaler.
package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/features"
)

// LoadArtifact reads and structurally validates a model artifact.
// Validation happens here, once, so a bad artifact can never fail
// per-request: callers that get a non-nil artifact can score with it for
// the process lifetime.
func LoadArtifact(path string) (*domain.ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	var artifact domain.ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: malformed artifact: %v", domain.ErrModelUnavailable, err)
	}

	if err := ValidateArtifact(&artifact); err != nil {
		return nil, err
	}

	return &artifact, nil
}

// ValidateArtifact checks the artifact against the canonical feature set.
func ValidateArtifact(a *domain.ModelArtifact) error {
	if len(a.FeatureNames) != features.FeatureCount {
		return fmt.Errorf("%w: expected %d features, artifact has %d",
			domain.ErrModelUnavailable, features.FeatureCount, len(a.FeatureNames))
	}
	for i, name := range a.FeatureNames {
		if name != features.Names[i] {
			return fmt.Errorf("%w: feature %d is %q, expected %q",
				domain.ErrModelUnavailable, i, name, features.Names[i])
		}
	}
	if len(a.Weights) != features.FeatureCount {
		return fmt.Errorf("%w: expected %d weights, artifact has %d",
			domain.ErrModelUnavailable, features.FeatureCount, len(a.Weights))
	}
	if len(a.Scaler.Mean) != features.FeatureCount || len(a.Scaler.Std) != features.FeatureCount {
		return fmt.Errorf("%w: scaler parameters do not match feature count",
			domain.ErrModelUnavailable)
	}
	for i, std := range a.Scaler.Std {
		if std == 0 {
			return fmt.Errorf("%w: scaler std for feature %d is zero",
				domain.ErrModelUnavailable, i)
		}
	}
	return nil
}

// SaveArtifact writes an artifact as indented JSON. Used by the trainer.
func SaveArtifact(path string, a *domain.ModelArtifact) error {
	if err := ValidateArtifact(a); err != nil {
		return err
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
