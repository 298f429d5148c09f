// Package insights asks a text-generation model for short operating advice
// over a day's figures. It never fails: any problem degrades to a fixed
// fallback list.
package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"petrolhub/backend/internal/cache"
	"petrolhub/backend/internal/domain"
)

const FallbackMessage = "Insights are unavailable right now."

const maxInsights = 3

// Completer is the part of the OpenAI client the advisor needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Figures is everything the advisor looks at for one day.
type Figures struct {
	Report     domain.DailyReport      `json:"report"`
	Tanks      []domain.FuelTank       `json:"tanks"`
	Lubricants []domain.LubricantStock `json:"lubricants"`
}

type Options struct {
	Model   string
	TTL     time.Duration
	Timeout time.Duration
}

type Advisor struct {
	client  Completer
	cache   cache.InsightCache
	model   string
	ttl     time.Duration
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewClient returns nil when no API key is configured; the advisor then
// answers with the fallback list without calling out.
func NewClient(apiKey string) Completer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	return openai.NewClient(apiKey)
}

func NewAdvisor(client Completer, insightCache cache.InsightCache, opts Options, log zerolog.Logger) *Advisor {
	if insightCache == nil {
		insightCache = cache.NoopInsightCache{}
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Advisor{
		client:  client,
		cache:   insightCache,
		model:   opts.Model,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		log:     log,
		now:     time.Now,
	}
}

// Enabled reports whether a model client is configured.
func (a *Advisor) Enabled() bool {
	return a != nil && a.client != nil
}

// Advise returns model-generated insights, a cached copy of them, or the
// fallback list.
func (a *Advisor) Advise(ctx context.Context, figures Figures) domain.InsightResponse {
	date := figures.Report.Date
	if !a.Enabled() {
		return a.fallback(date)
	}

	key, err := CacheKey(figures)
	if err != nil {
		a.log.Warn().Err(err).Str("date", date).Msg("failed to hash figures, skipping insights cache")
	}
	if key != "" {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.log.Warn().Err(err).Msg("insights cache read failed")
		} else if ok {
			return *cached
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	items, err := a.complete(callCtx, figures)
	if err != nil {
		a.log.Warn().Err(err).Str("date", date).Msg("insights request failed, using fallback")
		return a.fallback(date)
	}

	resp := domain.InsightResponse{
		Date:        date,
		Insights:    items,
		GeneratedAt: a.now().UTC().Format(time.RFC3339),
	}
	if key != "" {
		if err := a.cache.Set(ctx, key, &resp, a.ttl); err != nil {
			a.log.Warn().Err(err).Msg("insights cache write failed")
		}
	}
	return resp
}

func (a *Advisor) fallback(date string) domain.InsightResponse {
	return domain.InsightResponse{
		Date:        date,
		Insights:    []string{FallbackMessage},
		Fallback:    true,
		GeneratedAt: a.now().UTC().Format(time.RFC3339),
	}
}

func (a *Advisor) complete(ctx context.Context, figures Figures) ([]string, error) {
	const op = "insights.complete"

	payload, err := json.Marshal(figures)
	if err != nil {
		return nil, fmt.Errorf("%s: encode figures: %w", op, err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You advise fuel station managers. Answer only with a JSON array of short strings.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(payload),
			},
		},
		Temperature: 0.3,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: completion request failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no response choices", op)
	}

	items, err := parseInsights(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func buildPrompt(payload []byte) string {
	return fmt.Sprintf(`Here are today's figures for a fuel station: sales by category, payment channels, cash and bank positions, tank levels and lubricant stock.
%s
Give %d short strategic recommendations to optimise stock and sales. Reply with a JSON array of strings.`, payload, maxInsights)
}

// parseInsights accepts a bare JSON array, optionally fenced in markdown, or
// an object with an "insights" array.
func parseInsights(content string) ([]string, error) {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var wrapped struct {
			Insights []string `json:"insights"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		items = wrapped.Insights
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty insights list")
	}
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out, nil
}

// CacheKey digests the figures so identical days share one cached answer.
func CacheKey(figures Figures) (string, error) {
	payload, err := json.Marshal(figures)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
