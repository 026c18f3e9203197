package service

import (
	"bitwise74/unmask-api/internal/model"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrClassifier = errors.New("classifier failed to process the image")

type Prediction struct {
	Label string
	// Percentage in [0, 100]
	Confidence float64
}

// Classifier is the pre-trained REAL/FAKE model. It's created once at
// startup and shared by every request
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Prediction, error)
}

// FromScores converts raw class scores into a Prediction. labels maps a
// score index to its label and comes from the model's metadata
func FromScores(scores []float64, labels []string) (Prediction, error) {
	if len(scores) == 0 || len(scores) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: got %d scores for %d labels", ErrClassifier, len(scores), len(labels))
	}

	best := 0
	for i, s := range scores {
		if math.IsNaN(s) {
			return Prediction{}, fmt.Errorf("%w: score %d is NaN", ErrClassifier, i)
		}

		if s > scores[best] {
			best = i
		}
	}

	label := labels[best]
	if label != model.LabelReal && label != model.LabelFake {
		return Prediction{}, fmt.Errorf("%w: unknown label %q", ErrClassifier, label)
	}

	// Scores are probabilities in [0, 1]
	confidence := math.Round(scores[best]*10000) / 100

	return Prediction{
		Label:      label,
		Confidence: min(max(confidence, 0), 100),
	}, nil
}

// HashClassifier derives a stable prediction from the image content. It
// stands in for the real model during development
type HashClassifier struct{}

func (HashClassifier) Classify(_ context.Context, image []byte) (Prediction, error) {
	if len(image) == 0 {
		return Prediction{}, ErrClassifier
	}

	sum := sha256.Sum256(image)
	fake := float64(binary.BigEndian.Uint64(sum[:8])) / float64(math.MaxUint64)

	return FromScores([]float64{fake, 1 - fake}, []string{model.LabelFake, model.LabelReal})
}
