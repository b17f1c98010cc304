package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/assessment"
	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/imaging"
	"github.com/greenfinch/fieldvisit/internal/ocr"
	"github.com/greenfinch/fieldvisit/internal/resilience"
	"github.com/greenfinch/fieldvisit/internal/store"
	"github.com/greenfinch/fieldvisit/internal/summary"
	"github.com/greenfinch/fieldvisit/internal/valuation"
	"github.com/greenfinch/fieldvisit/pkg/anthropic"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// newService wires the valuation engine and collaborators described by c.
// A nil st disables persistence.
func newService(c *config.Config, st store.Store) (*assessment.Service, error) {
	engine, err := valuation.NewEngine(valuation.FromConfig(c.Valuation))
	if err != nil {
		return nil, err
	}

	extractor, err := ocr.NewExtractor(c.OCR, resilience.NewPolicy("ocr", c.Resilience))
	if err != nil {
		return nil, err
	}

	var client anthropic.Client
	if c.Summary.Provider == "anthropic" {
		if c.Anthropic.Key == "" {
			return nil, eris.New("anthropic.key is required for the anthropic summary provider")
		}
		client = anthropic.NewClient(c.Anthropic.Key)
	}
	summarizer, err := summary.New(c.Summary, c.Anthropic, client, resilience.NewPolicy("summary", c.Resilience))
	if err != nil {
		return nil, err
	}

	zap.L().Debug("service initialized",
		zap.String("store", c.Store.Driver),
		zap.String("ocr", c.OCR.Provider),
		zap.String("summary", c.Summary.Provider),
		zap.Bool("derive_location_status", c.Valuation.DeriveLocationStatus),
	)

	return assessment.New(engine, st, extractor, summarizer, imaging.FromConfig(c.Imaging)), nil
}
