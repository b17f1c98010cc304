package model

import "time"

// Image is an uploaded photo or scanned note.
type Image struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// TextExtraction is the OCR output for a set of note images.
type TextExtraction struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"` // 0-100
}

// Summary is a condensed version of agent notes.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// ImageQuality is the quality tier assigned to a property photo.
type ImageQuality string

const (
	QualityHigh   ImageQuality = "high"
	QualityMedium ImageQuality = "medium"
	QualityLow    ImageQuality = "low"
)

// ImageAnalysis describes a single analysed property photo.
type ImageAnalysis struct {
	Quality          ImageQuality `json:"quality"`
	PropertyType     string       `json:"property_type"`
	DetectedFeatures []string     `json:"detected_features"`
	ConfidenceScore  int          `json:"confidence_score"`
}

// Report is a persisted valuation report.
type Report struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Input      AssessmentInput `json:"input"`
	Result     ValuationResult `json:"result"`
	Extraction *TextExtraction `json:"extraction,omitempty"`
	Summary    *Summary        `json:"summary,omitempty"`
	Images     []ImageAnalysis `json:"images,omitempty"`
}
