package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gearshift-group/lot-scraper/internal/model"
)

// contextWindow is how many characters of surrounding text each candidate
// keeps for disambiguation and logging.
const contextWindow = 60

// numToken pulls the numeric part and optional thousands suffix out of a
// pattern match: "8k", "25K", "186,000", "1,234".
var numToken = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([kK])?`)

// Scan applies each pattern in order over the full text and returns every
// match as a candidate with position and surrounding context. It supports
// comma-grouped numbers and the "k" multiplier ("8k miles" → 8000).
// No match yields an empty slice, never an error.
func Scan(text string, region model.SourceRegion, patterns []*regexp.Regexp) []model.Candidate {
	if text == "" {
		return nil
	}

	var out []model.Candidate
	for _, pat := range patterns {
		for _, loc := range pat.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			val, ok := parseNumber(raw)
			if !ok {
				continue
			}
			out = append(out, model.Candidate{
				Value:    val,
				Raw:      raw,
				Context:  contextAround(text, loc[0], loc[1]),
				Region:   region,
				Position: loc[0],
			})
		}
	}
	return out
}

// ParseNumberToken converts the first numeric token in raw to an
// integer, applying the k multiplier and stripping thousands separators.
// Exposed for site-specific extractors that match their own patterns.
func ParseNumberToken(raw string) (int, bool) {
	return parseNumber(raw)
}

// parseNumber converts the first numeric token in raw to an integer,
// applying the k multiplier and stripping thousands separators.
func parseNumber(raw string) (int, bool) {
	m := numToken.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}

	numText := strings.ReplaceAll(m[1], ",", "")
	f, err := strconv.ParseFloat(numText, 64)
	if err != nil {
		return 0, false
	}
	if m[2] != "" {
		f *= 1000
	}
	return int(f), true
}

func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	// Byte offsets can land mid-rune; back each edge onto a rune boundary
	// so the context stays valid UTF-8.
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

// yearToken matches a plausible 4-digit vehicle model year.
var yearToken = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2})\b`)

// nearestYearDistance returns the distance from pos to the closest year
// token in text, or -1 when the text has no year token.
func nearestYearDistance(text string, pos int) int {
	locs := yearToken.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return -1
	}
	best := -1
	for _, loc := range locs {
		d := pos - loc[0]
		if d < 0 {
			d = -d
		}
		if best == -1 || d < best {
			best = d
		}
	}
	return best
}
