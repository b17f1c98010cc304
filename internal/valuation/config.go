// Package valuation scores field visit data and derives a property valuation
// and loan recommendation band.
package valuation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/config"
)

// Factor keys, in report order.
const (
	FactorLocation      = "location"
	FactorDocumentation = "documentation"
	FactorNeighborhood  = "neighborhood"
	FactorRoadAccess    = "road_access"
	FactorRecentSales   = "recent_sales"
	FactorImageAnalysis = "image_analysis"
)

var factorOrder = []string{
	FactorLocation,
	FactorDocumentation,
	FactorNeighborhood,
	FactorRoadAccess,
	FactorRecentSales,
	FactorImageAnalysis,
}

var factorNames = map[string]string{
	FactorLocation:      "Location and Pincode Analysis",
	FactorDocumentation: "Property Documentation",
	FactorNeighborhood:  "Neighborhood Condition",
	FactorRoadAccess:    "Road Access and Infrastructure",
	FactorRecentSales:   "Recent Sales Comparison",
	FactorImageAnalysis: "Image Analysis",
}

// FactorName returns the display name for a factor key.
func FactorName(key string) string {
	if n, ok := factorNames[key]; ok {
		return n
	}
	return key
}

// FactorKeys returns the factor keys in report order.
func FactorKeys() []string {
	return append([]string(nil), factorOrder...)
}

// Weights maps factor keys to their share of the credibility score.
type Weights map[string]float64

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// BaseTier maps postal code prefixes to a base valuation in lakhs.
type BaseTier struct {
	Prefixes []string
	Lakhs    int64
}

// Config is the engine's tuning table.
type Config struct {
	Weights Weights
	// Tiers are checked in order; the first matching prefix wins.
	Tiers       []BaseTier
	DefaultBase int64
	// DeriveLocationStatus grades the location factor from the base tier
	// instead of always reporting it positive with no contribution.
	DeriveLocationStatus bool
	ProcessingDelay      time.Duration
}

// DefaultWeights returns the standard six-factor weighting.
func DefaultWeights() Weights {
	return Weights{
		FactorLocation:      0.25,
		FactorDocumentation: 0.15,
		FactorNeighborhood:  0.15,
		FactorRoadAccess:    0.15,
		FactorRecentSales:   0.20,
		FactorImageAnalysis: 0.10,
	}
}

// DefaultTiers returns the metro postal prefix table.
func DefaultTiers() []BaseTier {
	return []BaseTier{
		{Prefixes: []string{"400", "401"}, Lakhs: 200}, // Mumbai
		{Prefixes: []string{"110"}, Lakhs: 150},        // Delhi
		{Prefixes: []string{"560"}, Lakhs: 120},        // Bengaluru
		{Prefixes: []string{"600"}, Lakhs: 100},        // Chennai
		{Prefixes: []string{"500"}, Lakhs: 90},         // Hyderabad
		{Prefixes: []string{"411"}, Lakhs: 80},         // Pune
	}
}

// DefaultConfig returns the standard engine configuration with no processing delay.
func DefaultConfig() Config {
	return Config{
		Weights:     DefaultWeights(),
		Tiers:       DefaultTiers(),
		DefaultBase: 50,
	}
}

// FromConfig overlays application config onto the defaults.
func FromConfig(c config.ValuationConfig) Config {
	cfg := DefaultConfig()
	if len(c.Weights) > 0 {
		w := DefaultWeights()
		for k, v := range c.Weights {
			w[strings.ToLower(k)] = v
		}
		cfg.Weights = w
	}
	cfg.DeriveLocationStatus = c.DeriveLocationStatus
	if c.ProcessingDelayMs > 0 {
		cfg.ProcessingDelay = time.Duration(c.ProcessingDelayMs) * time.Millisecond
	}
	return cfg
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	for _, key := range factorOrder {
		w, ok := c.Weights[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing weight for %s", key))
			continue
		}
		if w <= 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("%s weight must be in (0, 1], got %.3f", key, w))
		}
	}

	var unknown []string
	for key := range c.Weights {
		if _, ok := factorNames[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, fmt.Sprintf("unknown factor %q", key))
	}

	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 0.001 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.3f", sum))
	}

	if c.DefaultBase <= 0 {
		errs = append(errs, "default base must be > 0")
	}
	for i, tier := range c.Tiers {
		if len(tier.Prefixes) == 0 {
			errs = append(errs, fmt.Sprintf("tier %d has no prefixes", i))
		}
		if tier.Lakhs <= 0 {
			errs = append(errs, fmt.Sprintf("tier %d base must be > 0", i))
		}
	}

	if c.ProcessingDelay < 0 {
		errs = append(errs, "processing delay must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("valuation: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
