package model

import (
	"net/url"
	"strconv"
)

// FactorStatus is the qualitative outcome of one valuation factor.
type FactorStatus string

const (
	FactorPositive FactorStatus = "positive"
	FactorNeutral  FactorStatus = "neutral"
	FactorNegative FactorStatus = "negative"
)

// ValuationFactor is one weighted sub-assessment of the credibility score.
type ValuationFactor struct {
	Name         string       `json:"name"`
	Status       FactorStatus `json:"status"`
	Weight       float64      `json:"weight"`
	Contribution float64      `json:"contribution"`
}

// LoanStatus is the loan recommendation band.
type LoanStatus string

const (
	LoanOkay           LoanStatus = "okay"
	LoanCaution        LoanStatus = "caution"
	LoanNotRecommended LoanStatus = "not_recommended"
)

// LoanRecommendation is the band a valuation falls in plus its advisory text.
type LoanRecommendation struct {
	Status  LoanStatus `json:"status"`
	Range   string     `json:"range"`
	Message string     `json:"message"`
}

// ValuationResult is the output of one engine calculation.
type ValuationResult struct {
	Score              int                `json:"score"`
	Valuation          string             `json:"valuation"` // lakhs, two decimal places
	LoanRecommendation LoanRecommendation `json:"loan_recommendation"`
	Factors            []ValuationFactor  `json:"factors"`
}

// Query parameter names used to hand a result to the results view.
const (
	ParamScore     = "score"
	ParamValuation = "valuation"
	ParamStatus    = "loanStatus"
	ParamRange     = "loanRange"
)

// QueryParams encodes the fields the results view needs.
func (r ValuationResult) QueryParams() url.Values {
	v := url.Values{}
	v.Set(ParamScore, strconv.Itoa(r.Score))
	v.Set(ParamValuation, r.Valuation)
	v.Set(ParamStatus, string(r.LoanRecommendation.Status))
	v.Set(ParamRange, r.LoanRecommendation.Range)
	return v
}

// ResultView is what the results view can reconstruct from query parameters alone.
type ResultView struct {
	Score      int
	Valuation  string
	LoanStatus LoanStatus
	LoanRange  string
}

// ParseResultQuery decodes parameters written by QueryParams. Missing or
// malformed values fall back to score 0, valuation "0" and the caution band.
func ParseResultQuery(q url.Values) ResultView {
	view := ResultView{
		Valuation:  "0",
		LoanStatus: LoanCaution,
		LoanRange:  "40 lac - 80 lac",
	}
	if n, err := strconv.Atoi(q.Get(ParamScore)); err == nil {
		view.Score = n
	}
	if v := q.Get(ParamValuation); v != "" {
		view.Valuation = v
	}
	if s := q.Get(ParamStatus); s != "" {
		view.LoanStatus = LoanStatus(s)
	}
	if r := q.Get(ParamRange); r != "" {
		view.LoanRange = r
	}
	return view
}
