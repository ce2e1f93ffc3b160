package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/resilience"
	"github.com/gearshift-group/lot-scraper/pkg/anthropic"
)

const optionsSystem = "You normalize vehicle option descriptions. Map jargon and abbreviations " +
	`to canonical option names and return only a JSON object: {"options": [<string>, ...]}. ` +
	"Omit anything that is not a factory or dealer option."

const optionsPromptFmt = `Raw option text from a vehicle listing:

%s

Return the canonical option names.`

// OptionsNormalizer maps freeform option text to canonical option names.
// The classification service expands jargon ("PCCB" → "Porsche Ceramic
// Composite Brakes"); the fallback is a plain comma/semicolon split with
// no abbreviation expansion — degraded output is acceptable, fabricated
// expansions are not.
type OptionsNormalizer struct {
	ai    anthropic.Client
	model string
	retry resilience.RetryConfig
}

// NewOptionsNormalizer builds a normalizer. ai may be nil, in which case
// only the fallback split runs.
func NewOptionsNormalizer(ai anthropic.Client, aiModel string, retry resilience.RetryConfig) *OptionsNormalizer {
	return &OptionsNormalizer{ai: ai, model: aiModel, retry: retry}
}

// Normalize maps raw option text to a list of canonical option names.
// Empty input yields an empty list.
func (n *OptionsNormalizer) Normalize(ctx context.Context, rawText string) []string {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil
	}

	if n.ai != nil {
		if opts, ok := n.classify(ctx, rawText); ok {
			return opts
		}
	}
	return fallbackSplit(rawText)
}

func (n *OptionsNormalizer) classify(ctx context.Context, rawText string) ([]string, bool) {
	cfg := n.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", "options")

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return n.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     n.model,
			MaxTokens: 1024,
			System:    optionsSystem,
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(optionsPromptFmt, rawText)},
			},
		})
	})
	if err != nil {
		zap.L().Warn("options classification unavailable, using fallback",
			zap.Bool("rate_limited", resilience.IsRateLimit(err)),
			zap.Error(err),
		)
		return nil, false
	}

	var raw struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		zap.L().Debug("unparseable options response, using fallback", zap.Error(err))
		return nil, false
	}

	out := raw.Options[:0]
	for _, o := range raw.Options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out, true
}

// fallbackSplit is the deterministic path: split on comma/semicolon,
// trim, drop empties.
func fallbackSplit(rawText string) []string {
	parts := strings.FieldsFunc(rawText, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
