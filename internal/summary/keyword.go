package summary

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
)

const maxKeyPoints = 4

// genericSummary is used when the notes never mention the property itself.
const genericSummary = "Agent notes describe a property with various characteristics that require assessment for accurate valuation. Further verification of documentation and property condition is recommended."

// sentenceSplit splits on full stops and the Devanagari danda.
var sentenceSplit = regexp.MustCompile(`[.।]`)

// Keyword builds summaries by matching English and Hindi keywords.
type Keyword struct {
	latency time.Duration
}

// NewKeyword creates a Keyword summarizer that waits latency before answering.
func NewKeyword(latency time.Duration) *Keyword {
	return &Keyword{latency: latency}
}

// Summarize implements Summarizer.
func (k *Keyword) Summarize(ctx context.Context, text string) (*model.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := resilience.Sleep(ctx, k.latency); err != nil {
		return nil, err
	}
	return &model.Summary{
		Summary:   summarize(text),
		KeyPoints: KeyPoints(text),
	}, nil
}

// KeyPoints returns the first few non-empty sentences of text.
func KeyPoints(text string) []string {
	points := make([]string, 0, maxKeyPoints)
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		points = append(points, s)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func summarize(text string) string {
	lower := strings.ToLower(text)
	if !containsAny(lower, "property", "प्रॉपर्टी") {
		return genericSummary
	}

	var parts []string
	switch {
	case containsAny(lower, "good", "excellent", "अच्छी"):
		parts = append(parts, "Property is in good condition with favorable location characteristics.")
	case containsAny(lower, "average", "ok", "ठीक"):
		parts = append(parts, "Property is in average condition with some concerns noted.")
	default:
		parts = append(parts, "Property condition requires further assessment.")
	}

	switch {
	case containsAny(lower, "crore", "करोड़"):
		parts = append(parts, "Property valuation is in the crore range, indicating premium segment.")
	case containsAny(lower, "lakh", "लाख"):
		parts = append(parts, "Property valuation is in the lakh range.")
	}

	if containsAny(lower, "document", "दस्तावेज़") {
		if containsAny(lower, "verified", "सत्यापित") {
			parts = append(parts, "All documentation has been verified and appears to be in order.")
		} else {
			parts = append(parts, "Documentation requires further verification.")
		}
	}

	return strings.Join(parts, " ")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
