package valuation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/greenfinch/fieldvisit/internal/model"
)

// statusFor grades a 0-100 subscore.
func statusFor(score int) model.FactorStatus {
	switch {
	case score >= 70:
		return model.FactorPositive
	case score >= 40:
		return model.FactorNeutral
	default:
		return model.FactorNegative
	}
}

// docPoints returns the points one documentation answer is worth when the
// full-credit value is full. Partial answers earn half, rounded down.
func docPoints(s model.DocStatus, full int) int {
	switch s {
	case model.DocYes:
		return full
	case model.DocPartial:
		return full / 2
	default:
		return 0
	}
}

func documentationScore(in model.AssessmentInput) int {
	return docPoints(in.NeighbourConfirmation, 33) +
		docPoints(in.EmploymentProof, 33) +
		docPoints(in.AddressMatchingAadhaar, 34)
}

func neighborhoodScore(text string) int {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "good", "excellent", "premium"):
		return 90
	case containsAny(lower, "average", "ok"):
		return 60
	default:
		return 30
	}
}

func roadScore(access, width string) int {
	lower := strings.ToLower(access)
	var score int
	switch {
	case containsAny(lower, "good", "excellent", "direct"):
		score = 50
	case containsAny(lower, "average", "ok"):
		score = 30
	default:
		score = 10
	}
	return score + roadWidthPoints(ParseRoadWidth(width))
}

func roadWidthPoints(feet float64) int {
	switch {
	case feet >= 30:
		return 50
	case feet >= 20:
		return 40
	case feet >= 15:
		return 30
	case feet >= 10:
		return 20
	default:
		return 10
	}
}

// ParseRoadWidth extracts the number embedded in free text such as
// "30 feet" or "approx. 12.5ft". Unparseable text yields 0; a digit run too
// large for float64 yields +Inf.
func ParseRoadWidth(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// Only the leading well-formed number counts ("1.2.3" reads as 1.2).
	if first := strings.IndexByte(digits, '.'); first >= 0 {
		if second := strings.IndexByte(digits[first+1:], '.'); second >= 0 {
			digits = digits[:first+1+second]
		}
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return v
}

// salesScore treats only empty text as absent. Whitespace is present text
// that mentions no price level.
func salesScore(text string) int {
	if text == "" {
		return 50
	}
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "crore", "high", "expensive"):
		return 90
	case containsAny(lower, "average", "moderate"):
		return 60
	default:
		return 30
	}
}

func imageScore(count int) int {
	if count > 0 {
		return 80
	}
	return 40
}

// locationScore grades the base tier on a 0-100 scale where the top metro
// tier scores 100.
func locationScore(base int64) int {
	score := base * 100 / 200
	if score > 100 {
		score = 100
	}
	return int(score)
}

func locationStatus(base int64) model.FactorStatus {
	switch {
	case base >= 120:
		return model.FactorPositive
	case base >= 80:
		return model.FactorNeutral
	default:
		return model.FactorNegative
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
