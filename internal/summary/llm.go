package summary

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/resilience"
	"github.com/greenfinch/fieldvisit/pkg/anthropic"
)

const systemPrompt = `You summarize field notes written by property verification agents in India.
Notes may mix English and Hindi. Reply with a single JSON object and nothing else:
{"summary": "<two or three professional English sentences on condition, price range and documentation>",
 "key_points": ["<up to four short factual points>"]}`

// LLM summarizes notes with Claude.
type LLM struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	policy    *resilience.Policy
}

// NewLLM creates an LLM summarizer.
func NewLLM(client anthropic.Client, model string, maxTokens int64, policy *resilience.Policy) *LLM {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &LLM{client: client, model: model, maxTokens: maxTokens, policy: policy}
}

type llmSummary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Summarize implements Summarizer.
func (l *LLM) Summarize(ctx context.Context, text string) (*model.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       l.model,
		MaxTokens:   l.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt, Cached: true}},
		Messages:    []anthropic.Message{{Role: "user", Content: text}},
		Temperature: &temp,
	}

	resp, err := resilience.Call(ctx, l.policy, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return l.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "summary: anthropic request")
	}

	zap.L().Debug("summary: anthropic usage",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	parsed, err := parseLLMSummary(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(parsed.KeyPoints) > maxKeyPoints {
		parsed.KeyPoints = parsed.KeyPoints[:maxKeyPoints]
	}
	return &model.Summary{Summary: parsed.Summary, KeyPoints: parsed.KeyPoints}, nil
}

// parseLLMSummary reads the JSON object out of a reply, tolerating prose or
// code fences around it.
func parseLLMSummary(reply string) (*llmSummary, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, eris.New("summary: reply contains no JSON object")
	}

	var out llmSummary
	if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "summary: parse reply")
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, eris.New("summary: reply has empty summary")
	}
	return &out, nil
}
