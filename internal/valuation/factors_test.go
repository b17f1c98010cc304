package valuation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenfinch/fieldvisit/internal/model"
)

func TestDocumentationScore(t *testing.T) {
	tests := []struct {
		name string
		in   model.AssessmentInput
		want int
	}{
		{"all yes", model.AssessmentInput{NeighbourConfirmation: "yes", EmploymentProof: "yes", AddressMatchingAadhaar: "yes"}, 100},
		{"all partial", model.AssessmentInput{NeighbourConfirmation: "partial", EmploymentProof: "partial", AddressMatchingAadhaar: "partial"}, 49},
		{"all no", model.AssessmentInput{NeighbourConfirmation: "no", EmploymentProof: "no", AddressMatchingAadhaar: "no"}, 0},
		{"aadhaar only", model.AssessmentInput{AddressMatchingAadhaar: "yes"}, 34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, documentationScore(tt.in))
		})
	}
}

func TestDocumentationScore_Monotonic(t *testing.T) {
	rank := map[model.DocStatus]int{model.DocNo: 0, model.DocPartial: 1, model.DocYes: 2}
	answers := []model.DocStatus{model.DocNo, model.DocPartial, model.DocYes}

	type combo [3]model.DocStatus
	var combos []combo
	for _, a := range answers {
		for _, b := range answers {
			for _, c := range answers {
				combos = append(combos, combo{a, b, c})
			}
		}
	}

	score := func(c combo) int {
		return documentationScore(model.AssessmentInput{
			NeighbourConfirmation:  c[0],
			EmploymentProof:        c[1],
			AddressMatchingAadhaar: c[2],
		})
	}
	dominates := func(x, y combo) bool {
		for i := range x {
			if rank[x[i]] < rank[y[i]] {
				return false
			}
		}
		return true
	}

	for _, x := range combos {
		for _, y := range combos {
			if dominates(x, y) {
				assert.GreaterOrEqual(t, score(x), score(y), "%v vs %v", x, y)
			}
		}
	}
}

func TestNeighborhoodScore(t *testing.T) {
	assert.Equal(t, 90, neighborhoodScore("Premium gated community"))
	assert.Equal(t, 90, neighborhoodScore("EXCELLENT"))
	assert.Equal(t, 60, neighborhoodScore("average locality"))
	assert.Equal(t, 60, neighborhoodScore("ok"))
	assert.Equal(t, 30, neighborhoodScore("run down"))
	assert.Equal(t, 30, neighborhoodScore(""))
}

func TestRoadScore(t *testing.T) {
	assert.Equal(t, 100, roadScore("direct access from main road", "40 ft"))
	assert.Equal(t, 70, roadScore("average", "22 feet"))
	assert.Equal(t, 40, roadScore("narrow lane", "15"))
	assert.Equal(t, 20, roadScore("", ""))
	assert.Equal(t, 20, roadScore("kaccha", "wide"))
}

func TestParseRoadWidth(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30 feet", 30},
		{"approx 12.5ft", 12.5},
		{"1.2.3", 1.2},
		{"wide", 0},
		{"", 0},
		{".", 0},
		{"20-25 ft", 2025},
		{"1e5", 15},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseRoadWidth(tt.in), 1e-9)
		})
	}
}

func TestParseRoadWidth_Overflow(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400) + " ft"
	assert.True(t, math.IsInf(ParseRoadWidth(huge), 1))
	assert.Equal(t, 60, roadScore("unpaved", huge))
}

func TestRoadWidthPoints_Monotonic(t *testing.T) {
	prev := roadWidthPoints(0)
	for w := 0.0; w <= 60; w += 0.5 {
		p := roadWidthPoints(w)
		assert.GreaterOrEqual(t, p, prev, "width %.1f", w)
		prev = p
	}
	assert.Equal(t, 10, roadWidthPoints(9.99))
	assert.Equal(t, 20, roadWidthPoints(10))
	assert.Equal(t, 30, roadWidthPoints(15))
	assert.Equal(t, 40, roadWidthPoints(20))
	assert.Equal(t, 50, roadWidthPoints(30))
}

func TestSalesScore(t *testing.T) {
	assert.Equal(t, 50, salesScore(""))
	assert.Equal(t, 30, salesScore("   "))
	assert.Equal(t, model.FactorNegative, statusFor(salesScore("   ")))
	assert.Equal(t, 90, salesScore("sold for 1.2 crore"))
	assert.Equal(t, 90, salesScore("prices are high"))
	assert.Equal(t, 60, salesScore("moderate demand"))
	assert.Equal(t, 30, salesScore("no recent sales"))
}

func TestImageScore(t *testing.T) {
	assert.Equal(t, 80, imageScore(1))
	assert.Equal(t, 80, imageScore(12))
	assert.Equal(t, 40, imageScore(0))
	assert.Equal(t, model.FactorPositive, statusFor(imageScore(1)))
	assert.Equal(t, model.FactorNeutral, statusFor(imageScore(0)))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, model.FactorPositive, statusFor(70))
	assert.Equal(t, model.FactorNeutral, statusFor(69))
	assert.Equal(t, model.FactorNeutral, statusFor(40))
	assert.Equal(t, model.FactorNegative, statusFor(39))
}
