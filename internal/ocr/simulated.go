package ocr

import (
	"context"
	"time"

	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
)

// sampleNotes stand in for OCR output. The n-th entry is returned for n
// images, capped at the last.
var sampleNotes = []string{
	"Property located in good area, 2BHK flat with balcony. Owner asking 75 lakh. मालिक के अनुसार, प्रॉपर्टी 10 साल पुरानी है।",
	"3 bedroom house with garden, road condition average. नज़दीकी मार्केट 1km दूर है। Asking price 1.2 crore.",
	"Commercial property, good location, wide road access. दस्तावेज़ सत्यापित किए गए हैं। Valuation around 90 lakh.",
	"Old construction but well maintained. चारों तरफ अच्छी सड़कें हैं। Owner has all documents verified.",
	"Property has water issues during summer. बिजली की समस्या नहीं है। Good investment at 60 lakh.",
}

// Simulated returns canned bilingual field notes after a fixed latency.
type Simulated struct {
	latency time.Duration
	rnd     Rand
}

// NewSimulated creates a Simulated extractor. A nil rnd uses math/rand/v2.
func NewSimulated(latency time.Duration, rnd Rand) *Simulated {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Simulated{latency: latency, rnd: rnd}
}

// ExtractText returns one of the sample notes with a confidence in [75, 95].
func (s *Simulated) ExtractText(ctx context.Context, images []model.Image) (*model.TextExtraction, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if err := resilience.Sleep(ctx, s.latency); err != nil {
		return nil, err
	}

	idx := min(len(images)-1, len(sampleNotes)-1)
	return &model.TextExtraction{
		Text:       sampleNotes[idx],
		Confidence: 75 + s.rnd.IntN(21),
	}, nil
}
