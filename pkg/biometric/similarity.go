package biometric

import (
	"FaceGate/internal/entity"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidDescriptor = errors.New("invalid face descriptor")

func ValidateDescriptor(d entity.FaceDescriptor) error {
	if len(d) != entity.DescriptorSize {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidDescriptor, len(d), entity.DescriptorSize)
	}
	if !d.Valid() {
		return fmt.Errorf("%w: non-finite component", ErrInvalidDescriptor)
	}
	return nil
}

// SimilarityEngine maps the L2 distance between two descriptors to a score in
// [0,1] as max(0, 1 - distance/maxDistance) and accepts scores >= threshold.
type SimilarityEngine struct {
	maxDistance float64
	threshold   float64
}

func NewSimilarityEngine(maxDistance, threshold float64) *SimilarityEngine {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &SimilarityEngine{
		maxDistance: maxDistance,
		threshold:   threshold,
	}
}

func (e *SimilarityEngine) Threshold() float64 {
	return e.threshold
}

func (e *SimilarityEngine) Distance(a, b entity.FaceDescriptor) (float64, error) {
	if err := ValidateDescriptor(a); err != nil {
		return 0, err
	}
	if err := ValidateDescriptor(b); err != nil {
		return 0, err
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

func (e *SimilarityEngine) Similarity(a, b entity.FaceDescriptor) (float64, error) {
	distance, err := e.Distance(a, b)
	if err != nil {
		return 0, err
	}
	return math.Max(0, 1-distance/e.maxDistance), nil
}

func (e *SimilarityEngine) Decide(similarity float64) bool {
	return similarity >= e.threshold
}

// AverageDescriptors returns the component-wise mean of valid descriptors.
func AverageDescriptors(descriptors []entity.FaceDescriptor) (entity.FaceDescriptor, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: no descriptors to average", ErrInvalidDescriptor)
	}

	avg := make(entity.FaceDescriptor, entity.DescriptorSize)
	for _, d := range descriptors {
		if err := ValidateDescriptor(d); err != nil {
			return nil, err
		}
		for i, v := range d {
			avg[i] += v
		}
	}

	n := float64(len(descriptors))
	for i := range avg {
		avg[i] /= n
	}
	return avg, nil
}
