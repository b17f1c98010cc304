// Package report renders valuation results for people: a standalone HTML
// report, a plain-text rendition for the terminal, and a spreadsheet export.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/greenfinch/fieldvisit/internal/model"
)

const (
	Title    = "Greenfinch Field Visit Credibility Scorer"
	Subtitle = "Property Valuation Report"
	Footer   = "© 2025 Greenfinch Real Estate Valuation | All Rights Reserved"

	// DownloadFilename is the attachment name used for HTML exports.
	DownloadFilename = "Greenfinch_Property_Valuation_Report.html"
)

// Document is everything a rendered report shows.
type Document struct {
	ID          string
	GeneratedAt time.Time
	Address     string
	Score       int
	Valuation   string // lakhs
	Loan        model.LoanRecommendation
	Factors     []model.ValuationFactor
	Summary     *model.Summary
	Images      []model.ImageAnalysis
}

// FromReport builds a Document from a stored report.
func FromReport(r model.Report, now time.Time) Document {
	return Document{
		ID:          r.ID,
		GeneratedAt: now,
		Address:     r.Input.PropertyAddress,
		Score:       r.Result.Score,
		Valuation:   r.Result.Valuation,
		Loan:        r.Result.LoanRecommendation,
		Factors:     r.Result.Factors,
		Summary:     r.Summary,
		Images:      r.Images,
	}
}

// FromView builds a Document from the handful of values carried in a results
// URL. Factor statuses are not in the URL, so they are approximated from the
// score.
func FromView(v model.ResultView, now time.Time) Document {
	return Document{
		GeneratedAt: now,
		Score:       v.Score,
		Valuation:   v.Valuation,
		Loan: model.LoanRecommendation{
			Status:  v.LoanStatus,
			Range:   v.LoanRange,
			Message: LoanMessage(v.LoanStatus),
		},
		Factors: ApproximateFactors(v.Score),
	}
}

// approxThresholds are the positive and neutral cut-offs per factor, in
// factor order.
var approxThresholds = []struct {
	name              string
	positive, neutral int
}{
	{"Location and Pincode Analysis", 70, 50},
	{"Property Documentation", 75, 55},
	{"Neighborhood Condition", 80, 60},
	{"Road Access and Infrastructure", 65, 45},
	{"Recent Sales Comparison", 70, 50},
	{"Image Analysis", 75, 55},
}

// ApproximateFactors guesses factor statuses from an overall score.
func ApproximateFactors(score int) []model.ValuationFactor {
	out := make([]model.ValuationFactor, 0, len(approxThresholds))
	for _, th := range approxThresholds {
		status := model.FactorNegative
		switch {
		case score >= th.positive:
			status = model.FactorPositive
		case score >= th.neutral:
			status = model.FactorNeutral
		}
		out = append(out, model.ValuationFactor{Name: th.name, Status: status})
	}
	return out
}

// FormatValuation renders a lakh amount the way Indian valuers write it:
// crores with two decimals from 100 lakhs upward, plain lakhs below.
func FormatValuation(lakhs string) string {
	v, err := decimal.NewFromString(strings.TrimSpace(lakhs))
	if err != nil {
		return lakhs + " Lakhs"
	}
	if v.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return v.Div(decimal.NewFromInt(100)).StringFixed(2) + " Crores"
	}
	return v.String() + " Lakhs"
}

// CredibilityLabel describes a score in words.
func CredibilityLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent credibility"
	case score >= 60:
		return "Good credibility with some concerns"
	default:
		return "Low credibility, significant issues detected"
	}
}

// LoanMessage is the advisory shown for a loan status.
func LoanMessage(status model.LoanStatus) string {
	switch status {
	case model.LoanOkay:
		return "Loan approval recommended within this range."
	case model.LoanCaution:
		return "Proceed with caution. Additional verification recommended."
	case model.LoanNotRecommended:
		return "Loan not recommended at this valuation without substantial additional verification."
	default:
		return "Unable to determine loan recommendation."
	}
}

// RecommendationType classifies the overall recommendation.
type RecommendationType string

const (
	RecommendPositive RecommendationType = "positive"
	RecommendModerate RecommendationType = "moderate"
	RecommendNegative RecommendationType = "negative"
)

// Recommendation is the narrative verdict printed under the factors.
type Recommendation struct {
	Type    RecommendationType
	Text    string
	Closing string
}

// Recommend builds the recommendation for a score.
func Recommend(score int) Recommendation {
	rec := Recommendation{Type: RecommendNegative}
	potential := "weak"
	detail := " Significant issues with documentation, verification, and property condition were detected that substantially impact the valuation."
	switch {
	case score >= 80:
		rec.Type, potential = RecommendPositive, "strong"
		detail = " The documentation is complete, location is favorable, and the property condition appears to be well-maintained."
	case score >= 60:
		rec.Type, potential = RecommendModerate, "moderate"
		detail = " There are some concerns with documentation and verification that should be addressed for a more accurate valuation."
	}

	rec.Text = "Based on our analysis, this property shows " + potential + " investment potential." + detail
	if rec.Type == RecommendNegative {
		rec.Closing = "We recommend gathering additional documentation and verification before proceeding with the valuation process."
	} else {
		rec.Closing = "We recommend proceeding with the valuation process while addressing any noted concerns."
	}
	return rec
}

// Label turns an enum value such as "not_recommended" into "Not Recommended".
func Label[S ~string](s S) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// FormatDate renders a date as d/m/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("2/1/2006")
}
