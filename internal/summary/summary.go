// Package summary condenses agent field notes into a short professional
// summary and a list of key points.
package summary

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
	"github.com/greenfinch/fieldvisit/pkg/anthropic"
)

// Summarizer summarizes note text. Blank text yields a nil summary and no error.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*model.Summary, error)
}

// New creates a Summarizer based on config. The anthropic client is only
// required for the anthropic provider.
func New(cfg config.SummaryConfig, ac config.AnthropicConfig, client anthropic.Client, policy *resilience.Policy) (Summarizer, error) {
	switch cfg.Provider {
	case "keyword", "":
		return NewKeyword(time.Duration(cfg.LatencyMs) * time.Millisecond), nil
	case "anthropic":
		if client == nil {
			return nil, eris.New("summary: anthropic provider requires a client")
		}
		return NewLLM(client, ac.Model, cfg.MaxTokens, policy), nil
	default:
		return nil, eris.Errorf("summary: unknown provider %q", cfg.Provider)
	}
}
