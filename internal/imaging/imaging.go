// Package imaging analyses property photographs.
package imaging

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
)

// Analyzer inspects property photos. Results are returned in input order.
type Analyzer interface {
	Analyze(ctx context.Context, images []model.Image) ([]model.ImageAnalysis, error)
}

// Rand is the randomness source for simulated results.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

var propertyTypes = []string{
	"Residential Apartment",
	"Independent House",
	"Villa",
	"Commercial Space",
	"Plot/Land",
}

var features = []string{
	"Well-maintained exterior",
	"Good lighting",
	"Spacious rooms",
	"Modern construction",
	"Balcony/Terrace",
	"Garden/Green space",
	"Parking area",
	"Security features",
	"Water storage",
	"Solar panels",
	"Boundary wall",
	"Gated community",
	"Nearby park",
	"Road condition visible",
	"Neighborhood buildings visible",
}

const (
	minFeatures   = 3
	maxFeatures   = 6
	minConfidence = 65
	maxConfidence = 95
)

// Simulated produces plausible analyses without looking at pixel data.
type Simulated struct {
	latency time.Duration
	rnd     Rand
}

// NewSimulated creates a Simulated analyzer. A nil rnd uses math/rand/v2.
func NewSimulated(latency time.Duration, rnd Rand) *Simulated {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Simulated{latency: latency, rnd: rnd}
}

// FromConfig creates the analyzer configured for the service.
func FromConfig(cfg config.ImagingConfig) Analyzer {
	return NewSimulated(time.Duration(cfg.LatencyMs)*time.Millisecond, nil)
}

// Analyze implements Analyzer.
func (s *Simulated) Analyze(ctx context.Context, images []model.Image) ([]model.ImageAnalysis, error) {
	if len(images) == 0 {
		return []model.ImageAnalysis{}, nil
	}
	if err := resilience.Sleep(ctx, s.latency); err != nil {
		return nil, err
	}

	out := make([]model.ImageAnalysis, 0, len(images))
	for range images {
		confidence := minConfidence + s.rnd.IntN(maxConfidence-minConfidence+1)
		out = append(out, model.ImageAnalysis{
			Quality:          QualityFor(confidence),
			PropertyType:     propertyTypes[s.rnd.IntN(len(propertyTypes))],
			DetectedFeatures: s.pickFeatures(),
			ConfidenceScore:  confidence,
		})
	}
	return out, nil
}

func (s *Simulated) pickFeatures() []string {
	n := minFeatures + s.rnd.IntN(maxFeatures-minFeatures+1)
	seen := make(map[int]bool, n)
	picked := make([]string, 0, n)
	for len(picked) < n {
		i := s.rnd.IntN(len(features))
		if seen[i] {
			continue
		}
		seen[i] = true
		picked = append(picked, features[i])
	}
	return picked
}

// QualityFor maps a confidence score onto a quality tier.
func QualityFor(confidence int) model.ImageQuality {
	switch {
	case confidence >= 85:
		return model.QualityHigh
	case confidence < 75:
		return model.QualityLow
	default:
		return model.QualityMedium
	}
}
