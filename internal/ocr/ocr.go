// Package ocr extracts text from photographed agent field notes.
package ocr

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
)

// ErrNoImages is returned when extraction is requested for an empty image set.
var ErrNoImages = eris.New("ocr: no images")

// Extractor extracts text content from note images.
type Extractor interface {
	ExtractText(ctx context.Context, images []model.Image) (*model.TextExtraction, error)
}

// Rand is the randomness source for simulated results.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig, policy *resilience.Policy) (Extractor, error) {
	switch cfg.Provider {
	case "simulated", "":
		return NewSimulated(time.Duration(cfg.LatencyMs)*time.Millisecond, nil), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel, policy), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
