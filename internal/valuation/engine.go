package valuation

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
)

var (
	lakhs40 = decimal.NewFromInt(40)
	lakhs80 = decimal.NewFromInt(80)
)

// Multiplier adjustments applied per factor status. Neutral is always zero.
var adjustments = map[string]struct{ positive, negative decimal.Decimal }{
	FactorDocumentation: {decimal.RequireFromString("0.10"), decimal.RequireFromString("-0.15")},
	FactorNeighborhood:  {decimal.RequireFromString("0.15"), decimal.RequireFromString("-0.20")},
	FactorRoadAccess:    {decimal.RequireFromString("0.10"), decimal.RequireFromString("-0.15")},
	FactorRecentSales:   {decimal.RequireFromString("0.15"), decimal.RequireFromString("-0.10")},
}

// Engine computes valuation results. It is safe for concurrent use.
type Engine struct {
	cfg  Config
	wait func(ctx context.Context, d time.Duration) error
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, wait: resilience.Sleep}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Calculate waits out the configured processing delay and evaluates in.
// The only error it returns is ctx.Err() when cancelled during the delay.
func (e *Engine) Calculate(ctx context.Context, in model.AssessmentInput) (*model.ValuationResult, error) {
	if e.cfg.ProcessingDelay > 0 {
		if err := e.wait(ctx, e.cfg.ProcessingDelay); err != nil {
			return nil, err
		}
	}

	result := e.Evaluate(in)
	zap.L().Debug("valuation: calculated",
		zap.String("postal_code", in.PostalCode),
		zap.Int("score", result.Score),
		zap.String("valuation", result.Valuation),
		zap.String("loan_status", string(result.LoanRecommendation.Status)),
	)
	return &result, nil
}

// Evaluate is the synchronous calculation behind Calculate.
func (e *Engine) Evaluate(in model.AssessmentInput) model.ValuationResult {
	in = in.Normalize()
	base := e.BaseValuation(in.PostalCode)

	subscores := map[string]int{
		FactorDocumentation: documentationScore(in),
		FactorNeighborhood:  neighborhoodScore(in.NearbyConditionText),
		FactorRoadAccess:    roadScore(in.RoadAccessText, in.RoadWidthText),
		FactorRecentSales:   salesScore(in.NearbySoldPropertyText),
		FactorImageAnalysis: imageScore(in.ImageCount),
	}

	factors := make([]model.ValuationFactor, 0, len(factorOrder))
	statuses := make(map[string]model.FactorStatus, len(factorOrder))
	total := decimal.Zero

	for _, key := range factorOrder {
		weight := e.cfg.Weights[key]
		var (
			status       model.FactorStatus
			contribution decimal.Decimal
		)

		if key == FactorLocation {
			status = model.FactorPositive
			contribution = decimal.Zero
			if e.cfg.DeriveLocationStatus {
				status = locationStatus(base)
				contribution = Contribution(locationScore(base), weight)
			}
		} else {
			score := subscores[key]
			status = statusFor(score)
			contribution = Contribution(score, weight)
		}

		statuses[key] = status
		total = total.Add(contribution)
		factors = append(factors, model.ValuationFactor{
			Name:         FactorName(key),
			Status:       status,
			Weight:       weight,
			Contribution: contribution.InexactFloat64(),
		})
	}

	valuation := decimal.NewFromInt(base).Mul(Multiplier(statuses))

	return model.ValuationResult{
		Score:              clampScore(total),
		Valuation:          valuation.StringFixed(2),
		LoanRecommendation: LoanBand(valuation),
		Factors:            factors,
	}
}

// BaseValuation returns the base value in lakhs for a postal code.
func (e *Engine) BaseValuation(postalCode string) int64 {
	for _, tier := range e.cfg.Tiers {
		for _, prefix := range tier.Prefixes {
			if strings.HasPrefix(postalCode, prefix) {
				return tier.Lakhs
			}
		}
	}
	return e.cfg.DefaultBase
}

// Contribution is a factor's share of the credibility score:
// subscore/100 * weight * 100.
func Contribution(subscore int, weight float64) decimal.Decimal {
	return decimal.NewFromInt(int64(subscore)).Mul(decimal.NewFromFloat(weight))
}

// Multiplier folds factor statuses into the valuation multiplier, starting at 1.0.
func Multiplier(statuses map[string]model.FactorStatus) decimal.Decimal {
	m := decimal.NewFromInt(1)
	for key, adj := range adjustments {
		switch statuses[key] {
		case model.FactorPositive:
			m = m.Add(adj.positive)
		case model.FactorNegative:
			m = m.Add(adj.negative)
		}
	}
	return m
}

// LoanBand maps a valuation in lakhs to its loan recommendation.
func LoanBand(valuation decimal.Decimal) model.LoanRecommendation {
	switch {
	case valuation.LessThanOrEqual(lakhs40):
		return model.LoanRecommendation{
			Status:  model.LoanOkay,
			Range:   "20 lac - 40 lac",
			Message: "Loan approval recommended within this range.",
		}
	case valuation.LessThanOrEqual(lakhs80):
		return model.LoanRecommendation{
			Status:  model.LoanCaution,
			Range:   "40 lac - 80 lac",
			Message: "Proceed with caution. Additional verification recommended.",
		}
	default:
		return model.LoanRecommendation{
			Status:  model.LoanNotRecommended,
			Range:   "Above 80 lac",
			Message: "Loan not recommended at this valuation without substantial additional verification.",
		}
	}
}

func clampScore(total decimal.Decimal) int {
	score := int(total.Round(0).IntPart())
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
