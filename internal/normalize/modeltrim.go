package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/resilience"
	"github.com/gearshift-group/lot-scraper/pkg/anthropic"
)

// ModelTrim is the canonical classification of a listing title.
// All-empty means the title was unclassifiable or denylisted.
type ModelTrim struct {
	Model      string `json:"model"`
	Trim       string `json:"trim"`
	Generation string `json:"generation"`
	Year       int    `json:"year"`
}

// IsZero reports whether nothing was resolved.
func (mt ModelTrim) IsZero() bool {
	return mt.Model == "" && mt.Trim == "" && mt.Generation == "" && mt.Year == 0
}

const modelTrimSystem = "You classify vehicle listing titles. Return only a JSON object: " +
	`{"model": <string or null>, "trim": <string or null>, "generation": <string or null>, "year": <number or null>}. ` +
	"Use null for anything the title does not state. Do not guess a trim that is not in the title."

const modelTrimPromptFmt = `Listing title: %q

Classify the model, trim, generation (chassis code), and model year.`

// ModelTrimNormalizer maps freeform listing titles to canonical
// model/trim/generation/year tuples. The classification service is the
// primary path; any failure or unparseable response degrades to ordered
// deterministic pattern matching, never to an error for the caller.
type ModelTrimNormalizer struct {
	ai    anthropic.Client
	model string
	retry resilience.RetryConfig
}

// NewModelTrimNormalizer builds a normalizer. ai may be nil, in which
// case only the deterministic path runs.
func NewModelTrimNormalizer(ai anthropic.Client, aiModel string, retry resilience.RetryConfig) *ModelTrimNormalizer {
	return &ModelTrimNormalizer{ai: ai, model: aiModel, retry: retry}
}

// Normalize classifies a title. The zero ModelTrim (all fields empty)
// signals a denylisted or unclassifiable title; callers discard those.
func (n *ModelTrimNormalizer) Normalize(ctx context.Context, title string) ModelTrim {
	if deniedModelFamily(title) {
		return ModelTrim{}
	}

	if n.ai != nil {
		if mt, ok := n.classify(ctx, title); ok {
			return mt
		}
	}
	return fallbackModelTrim(title)
}

func (n *ModelTrimNormalizer) classify(ctx context.Context, title string) (ModelTrim, bool) {
	cfg := n.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", "model_trim")

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return n.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     n.model,
			MaxTokens: 256,
			System:    modelTrimSystem,
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(modelTrimPromptFmt, title)},
			},
		})
	})
	if err != nil {
		zap.L().Warn("model/trim classification unavailable, using fallback",
			zap.Bool("rate_limited", resilience.IsRateLimit(err)),
			zap.Error(err),
		)
		return ModelTrim{}, false
	}

	var raw struct {
		Model      *string `json:"model"`
		Trim       *string `json:"trim"`
		Generation *string `json:"generation"`
		Year       *int    `json:"year"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		zap.L().Debug("unparseable model/trim response, using fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		return ModelTrim{}, false
	}

	mt := ModelTrim{}
	if raw.Model != nil {
		mt.Model = strings.TrimSpace(*raw.Model)
	}
	if raw.Trim != nil {
		mt.Trim = strings.TrimSpace(*raw.Trim)
	}
	if raw.Generation != nil {
		mt.Generation = strings.TrimSpace(*raw.Generation)
	}
	if raw.Year != nil {
		mt.Year = *raw.Year
	}
	if mt.Generation == "" && mt.Model != "" && mt.Year > 0 {
		mt.Generation = generationForYear(mt.Model, mt.Year)
	}
	return mt, true
}

// deniedFamilies are model families outside the sports-car scope. Titles
// naming them resolve all-null so the caller can discard the listing.
var deniedFamilies = []string{
	"cayenne", "macan", "panamera", "taycan",
}

func deniedModelFamily(title string) bool {
	low := strings.ToLower(title)
	for _, f := range deniedFamilies {
		if strings.Contains(low, f) {
			return true
		}
	}
	return false
}

// trimVocab is ordered most-specific-first: a combined pattern like
// "GT3 RS" must be checked, and must win, before its "GT3" substring.
var trimVocab = []struct {
	pattern *regexp.Regexp
	trim    string
}{
	{regexp.MustCompile(`(?i)\bGT3\s*RS\b`), "GT3 RS"},
	{regexp.MustCompile(`(?i)\bGT3\s*Touring\b`), "GT3 Touring"},
	{regexp.MustCompile(`(?i)\bGT3\b`), "GT3"},
	{regexp.MustCompile(`(?i)\bGT2\s*RS\b`), "GT2 RS"},
	{regexp.MustCompile(`(?i)\bGT2\b`), "GT2"},
	{regexp.MustCompile(`(?i)\bGT4\s*RS\b`), "GT4 RS"},
	{regexp.MustCompile(`(?i)\bGT4\b`), "GT4"},
	{regexp.MustCompile(`(?i)\bTurbo\s*S\b`), "Turbo S"},
	{regexp.MustCompile(`(?i)\bTurbo\b`), "Turbo"},
	{regexp.MustCompile(`(?i)\bCarrera\s*4\s*GTS\b`), "Carrera 4 GTS"},
	{regexp.MustCompile(`(?i)\bCarrera\s*GTS\b`), "Carrera GTS"},
	{regexp.MustCompile(`(?i)\bCarrera\s*4S\b`), "Carrera 4S"},
	{regexp.MustCompile(`(?i)\bCarrera\s*4\b`), "Carrera 4"},
	{regexp.MustCompile(`(?i)\bCarrera\s*S\b`), "Carrera S"},
	{regexp.MustCompile(`(?i)\bCarrera\s*T\b`), "Carrera T"},
	{regexp.MustCompile(`(?i)\bCarrera\b`), "Carrera"},
	{regexp.MustCompile(`(?i)\bTarga\s*4S\b`), "Targa 4S"},
	{regexp.MustCompile(`(?i)\bTarga\s*4\b`), "Targa 4"},
	{regexp.MustCompile(`(?i)\bTarga\b`), "Targa"},
	{regexp.MustCompile(`(?i)\bSpeedster\b`), "Speedster"},
	{regexp.MustCompile(`(?i)\bSport\s*Classic\b`), "Sport Classic"},
	{regexp.MustCompile(`(?i)\bDakar\b`), "Dakar"},
	{regexp.MustCompile(`(?i)\bS/T\b`), "S/T"},
	{regexp.MustCompile(`(?i)\bSpyder\s*RS\b`), "Spyder RS"},
	{regexp.MustCompile(`(?i)\bSpyder\b`), "Spyder"},
	{regexp.MustCompile(`(?i)\bGTS\b`), "GTS"},
}

// modelVocab is ordered so compound names win over their components.
var modelVocab = []struct {
	pattern *regexp.Regexp
	model   string
}{
	{regexp.MustCompile(`(?i)\bCarrera\s*GT\b`), "Carrera GT"},
	{regexp.MustCompile(`(?i)\b918\s*Spyder\b`), "918 Spyder"},
	{regexp.MustCompile(`(?i)\b718\s*Cayman\b`), "718 Cayman"},
	{regexp.MustCompile(`(?i)\b718\s*Boxster\b`), "718 Boxster"},
	{regexp.MustCompile(`(?i)\b911\b`), "911"},
	{regexp.MustCompile(`(?i)\bCayman\b`), "Cayman"},
	{regexp.MustCompile(`(?i)\bBoxster\b`), "Boxster"},
	{regexp.MustCompile(`(?i)\b959\b`), "959"},
	{regexp.MustCompile(`(?i)\b944\b`), "944"},
	{regexp.MustCompile(`(?i)\b928\b`), "928"},
	{regexp.MustCompile(`(?i)\b914\b`), "914"},
	{regexp.MustCompile(`(?i)\b356\b`), "356"},
}

// fallbackModelTrim is the deterministic path: ordered vocabulary
// matching, longest/most-specific first.
func fallbackModelTrim(title string) ModelTrim {
	mt := ModelTrim{}

	for _, mv := range modelVocab {
		if mv.pattern.MatchString(title) {
			mt.Model = mv.model
			break
		}
	}

	// Carrera GT is a model, not a Carrera trim of the 911.
	if mt.Model != "Carrera GT" {
		for _, tv := range trimVocab {
			if tv.pattern.MatchString(title) {
				mt.Trim = tv.trim
				break
			}
		}
	}

	if m := yearPattern.FindString(title); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			mt.Year = y
		}
	}

	if mt.Model != "" && mt.Year > 0 {
		mt.Generation = generationForYear(mt.Model, mt.Year)
	}

	return mt
}

var yearPattern = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-4][0-9])\b`)

// generationSpans maps model years to chassis-code generations.
var generationSpans = map[string][]struct {
	from, to   int
	generation string
}{
	"911": {
		{1964, 1973, "F"},
		{1974, 1989, "G"},
		{1989, 1994, "964"},
		{1995, 1998, "993"},
		{1999, 2004, "996"},
		{2005, 2008, "997.1"},
		{2009, 2012, "997.2"},
		{2012, 2016, "991.1"},
		{2017, 2019, "991.2"},
		{2020, 2099, "992"},
	},
	"Boxster": {
		{1997, 2004, "986"},
		{2005, 2012, "987"},
		{2013, 2016, "981"},
	},
	"Cayman": {
		{2006, 2012, "987"},
		{2013, 2016, "981"},
	},
	"718 Boxster": {
		{2017, 2099, "982"},
	},
	"718 Cayman": {
		{2017, 2099, "982"},
	},
}

// generationForYear infers the chassis generation from the model year
// when the title does not state one. Overlap years (e.g. 2012 bridging
// 997.2 and 991.1) resolve to the earlier span.
func generationForYear(model string, year int) string {
	for _, span := range generationSpans[model] {
		if year >= span.from && year <= span.to {
			return span.generation
		}
	}
	return ""
}
