// Package assessment runs a field visit submission end to end: valuation,
// photo analysis and note extraction, then persistence of the report.
package assessment

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/greenfinch/fieldvisit/internal/imaging"
	"github.com/greenfinch/fieldvisit/internal/metrics"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/ocr"
	"github.com/greenfinch/fieldvisit/internal/store"
	"github.com/greenfinch/fieldvisit/internal/summary"
)

// Collaborator names used in logs, metrics and errors.
const (
	CollaboratorOCR     = "ocr"
	CollaboratorSummary = "summary"
	CollaboratorImaging = "imaging"
)

// ErrInvalidInput marks submissions rejected before any work is done.
var ErrInvalidInput = eris.New("assessment: invalid input")

// CollaboratorError is returned when a collaborator fails on a request that
// cannot proceed without it.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return e.Collaborator + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Calculator computes a valuation result.
type Calculator interface {
	Calculate(ctx context.Context, in model.AssessmentInput) (*model.ValuationResult, error)
}

// Submission is one field visit as submitted by an agent.
type Submission struct {
	Input model.AssessmentInput
	// Images are property photos. When present their count replaces Input.ImageCount.
	Images []model.Image
	// NoteImages are photographed handwritten notes.
	NoteImages []model.Image
}

// NotesResult is the outcome of processing photographed notes.
type NotesResult struct {
	Extraction *model.TextExtraction `json:"extraction"`
	Summary    *model.Summary        `json:"summary,omitempty"`
	// Notes is the caller's existing notes with the extracted block appended.
	Notes string `json:"notes"`
}

// Service coordinates a valuation with its collaborators.
type Service struct {
	calc       Calculator
	store      store.Store
	extractor  ocr.Extractor
	summarizer summary.Summarizer
	analyzer   imaging.Analyzer
}

// New creates a Service. A nil store disables persistence.
func New(calc Calculator, st store.Store, extractor ocr.Extractor, summarizer summary.Summarizer, analyzer imaging.Analyzer) *Service {
	return &Service{
		calc:       calc,
		store:      st,
		extractor:  extractor,
		summarizer: summarizer,
		analyzer:   analyzer,
	}
}

// Validate checks a submission's input fields.
func Validate(in model.AssessmentInput) error {
	var problems []string
	if strings.TrimSpace(in.PostalCode) == "" {
		problems = append(problems, "postal_code is required")
	}
	for _, f := range []struct {
		name  string
		value model.DocStatus
	}{
		{"neighbour_confirmation", in.NeighbourConfirmation},
		{"employment_proof", in.EmploymentProof},
		{"address_matching_aadhaar", in.AddressMatchingAadhaar},
		{"rent_agreement", in.RentAgreement},
	} {
		if !knownDocAnswer(f.value) {
			problems = append(problems, f.name+" must be yes, no or partial")
		}
	}
	if in.ImageCount < 0 {
		problems = append(problems, "image_count must not be negative")
	}
	if len(problems) > 0 {
		return eris.Wrap(ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// knownDocAnswer accepts blank and every spelling ParseDocStatus understands.
func knownDocAnswer(v model.DocStatus) bool {
	switch strings.ToLower(strings.TrimSpace(string(v))) {
	case "", "yes", "y", "true", "no", "n", "false", "partial", "partially":
		return true
	}
	return false
}

// Assess values a submission and stores the resulting report. Collaborator
// failures are logged and leave their part of the report empty; a failed
// valuation aborts without storing anything.
func (s *Service) Assess(ctx context.Context, sub Submission) (*model.Report, error) {
	if err := Validate(sub.Input); err != nil {
		return nil, err
	}
	in := sub.Input.Normalize()
	if len(sub.Images) > 0 {
		in.ImageCount = len(sub.Images)
	}

	var (
		result   *model.ValuationResult
		analyses []model.ImageAnalysis
		notes    *NotesResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.calc.Calculate(gctx, in)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if len(sub.Images) > 0 && s.analyzer != nil {
		g.Go(func() error {
			a, err := s.AnalyzeImages(gctx, sub.Images)
			if err != nil {
				zap.L().Warn("assessment: image analysis failed", zap.Error(err))
				return nil
			}
			analyses = a
			return nil
		})
	}
	if len(sub.NoteImages) > 0 && s.extractor != nil {
		g.Go(func() error {
			n, err := s.ProcessNotes(gctx, sub.NoteImages, in.AdditionalNotes)
			if err != nil {
				zap.L().Warn("assessment: note extraction failed", zap.Error(err))
				return nil
			}
			notes = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "assessment: calculate")
	}

	report := &model.Report{
		Input:  in,
		Result: *result,
		Images: analyses,
	}
	if notes != nil {
		report.Input.AdditionalNotes = notes.Notes
		report.Extraction = notes.Extraction
		report.Summary = notes.Summary
	}

	metrics.ObserveValuation(string(result.LoanRecommendation.Status), result.Score)

	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			return nil, eris.Wrap(err, "assessment: save report")
		}
	}

	zap.L().Info("assessment: report created",
		zap.String("report_id", report.ID),
		zap.String("postal_code", in.PostalCode),
		zap.Int("score", result.Score),
		zap.String("valuation", result.Valuation),
		zap.String("loan_status", string(result.LoanRecommendation.Status)),
		zap.Int("images", len(analyses)),
		zap.Bool("notes", notes != nil),
	)
	return report, nil
}

// ProcessNotes extracts text from note images, summarizes it and appends the
// result to existingNotes. A summary failure is logged and the notes are
// merged without it.
func (s *Service) ProcessNotes(ctx context.Context, images []model.Image, existingNotes string) (*NotesResult, error) {
	if len(images) == 0 {
		return nil, eris.Wrap(ocr.ErrNoImages, "assessment: process notes")
	}
	ext, err := s.ExtractText(ctx, images)
	if err != nil {
		return nil, err
	}

	res := &NotesResult{Extraction: ext}
	if s.summarizer != nil {
		sum, err := s.Summarize(ctx, ext.Text)
		if err != nil {
			zap.L().Warn("assessment: summary failed", zap.Error(err))
		} else {
			res.Summary = sum
		}
	}
	res.Notes = MergeNotes(existingNotes, ext.Text, res.Summary)
	return res, nil
}

// ExtractText runs OCR over note images.
func (s *Service) ExtractText(ctx context.Context, images []model.Image) (*model.TextExtraction, error) {
	if len(images) == 0 {
		return nil, eris.Wrap(ocr.ErrNoImages, "assessment: extract text")
	}
	start := time.Now()
	ext, err := s.extractor.ExtractText(ctx, images)
	metrics.ObserveCollaborator(CollaboratorOCR, start, err)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorOCR, Err: err}
	}
	return ext, nil
}

// Summarize condenses note text. Blank text yields nil.
func (s *Service) Summarize(ctx context.Context, text string) (*model.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	start := time.Now()
	sum, err := s.summarizer.Summarize(ctx, text)
	metrics.ObserveCollaborator(CollaboratorSummary, start, err)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorSummary, Err: err}
	}
	return sum, nil
}

// AnalyzeImages runs photo analysis. Results follow input order.
func (s *Service) AnalyzeImages(ctx context.Context, images []model.Image) ([]model.ImageAnalysis, error) {
	start := time.Now()
	out, err := s.analyzer.Analyze(ctx, images)
	metrics.ObserveCollaborator(CollaboratorImaging, start, err)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorImaging, Err: err}
	}
	return out, nil
}

// MergeNotes appends an extracted-notes block to existing notes.
func MergeNotes(existing, extracted string, sum *model.Summary) string {
	var b strings.Builder
	if existing != "" {
		b.WriteString(existing)
		b.WriteString("\n\n")
	}
	b.WriteString("Extracted from agent notes:\n")
	b.WriteString(extracted)
	if sum != nil && sum.Summary != "" {
		b.WriteString("\n\nProfessional Summary:\n")
		b.WriteString(sum.Summary)
	}
	if sum != nil && len(sum.KeyPoints) > 0 {
		b.WriteString("\n\nKey Points:")
		for _, p := range sum.KeyPoints {
			b.WriteString("\n- ")
			b.WriteString(p)
		}
	}
	return b.String()
}
