package extract

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// mileagePatterns match numbers with a miles unit nearby, spelled out or
// abbreviated: "186,000 miles", "8k-Mile", "25K Mile", "1,234-Mile".
var mileagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*k?[\s-]?miles?\b`),
	regexp.MustCompile(`(?i)\bmileage[:\s]+(\d{1,3}(?:,\d{3})+|\d+)\b`),
}

// Mileage resolves the subject vehicle's mileage using strict tier
// precedence: structured field, then title, then description, then any
// remaining body text. Comment text never participates: discussion
// threads quote other vehicles' mileage for comparison, and those numbers
// must not override the title's own stated figure. Once a tier yields a
// valid candidate, later tiers are not consulted.
func Mileage(p *page.Page) (int, bool) {
	type tier struct {
		text   string
		region model.SourceRegion
	}
	tiers := []tier{
		{p.StructuredValue("mileage"), model.RegionStructured},
		{p.Title(), model.RegionTitle},
		{p.Description(), model.RegionBody},
		{p.Body(), model.RegionBody},
	}

	for _, t := range tiers {
		if t.text == "" {
			continue
		}
		cands := Scan(t.text, t.region, mileagePatterns)
		if t.region == model.RegionStructured && len(cands) == 0 {
			// Structured rows hold a bare number with the unit in the label.
			cands = Scan(t.text, t.region, []*regexp.Regexp{
				regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d+)\s*[kK]?\b`),
			})
		}

		if v, ok := pickMileage(t.text, cands); ok {
			zap.L().Debug("mileage resolved",
				zap.Int("mileage", v),
				zap.String("region", string(t.region)),
			)
			return v, true
		}
	}
	return 0, false
}

// pickMileage validates candidates within one tier, preferring the one
// closest to a recognized year token, then first occurrence.
func pickMileage(text string, cands []model.Candidate) (int, bool) {
	bestVal := 0
	bestDist := -1
	bestPos := -1
	found := false

	for _, c := range cands {
		if !mileageValid(c.Value) {
			continue
		}
		d := nearestYearDistance(text, c.Position)
		if !found {
			bestVal, bestDist, bestPos, found = c.Value, d, c.Position, true
			continue
		}
		closerToYear := d >= 0 && (bestDist < 0 || d < bestDist)
		earlierTie := d == bestDist && c.Position < bestPos
		if closerToYear || earlierTie {
			bestVal, bestDist, bestPos = c.Value, d, c.Position
		}
	}

	return bestVal, found
}
