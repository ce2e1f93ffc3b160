package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// vinPattern is the generic 17-character VIN shape (no I, O, Q).
var vinPattern = regexp.MustCompile(`\b([A-HJ-NPR-Z0-9]{17})\b`)

// VIN resolves the chassis number: labeled region first, then a pattern
// search over the description. When the site rules carry marque prefixes,
// a candidate must start with one of them.
func VIN(p *page.Page, rules Rules) (string, bool) {
	for _, label := range []string{"vin", "chassis"} {
		if v := p.StructuredValue(label); v != "" {
			if vin, ok := validVIN(v, rules); ok {
				return vin, true
			}
		}
	}

	for _, text := range []string{p.Description(), p.Body()} {
		for _, m := range vinPattern.FindAllString(text, -1) {
			if vin, ok := validVIN(m, rules); ok {
				return vin, true
			}
		}
	}
	return "", false
}

func validVIN(s string, rules Rules) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := vinPattern.FindString(s)
	if m == "" {
		return "", false
	}
	if len(rules.VINPrefixes) > 0 {
		for _, prefix := range rules.VINPrefixes {
			if strings.HasPrefix(m, strings.ToUpper(prefix)) {
				return m, true
			}
		}
		return "", false
	}
	return m, true
}

// locationPatterns pull "City, ST" or "City, ST 12345" from prose.
var (
	structuredLocation = regexp.MustCompile(`^([A-Za-z .'-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?$`)
	proseLocation      = regexp.MustCompile(`(?i)\blocated in\s+([A-Z][A-Za-z .'-]+?),\s*([A-Za-z]{2})\b(?:\s+(\d{5}))?`)
)

// Location resolves the vehicle's city/state/zip. Partial results are
// fine; a fully empty triple reports absent.
func Location(p *page.Page) (model.Location, bool) {
	for _, label := range []string{"location", "seller location"} {
		if v := p.StructuredValue(label); v != "" {
			if m := structuredLocation.FindStringSubmatch(strings.TrimSpace(v)); m != nil {
				return model.Location{City: strings.TrimSpace(m[1]), State: strings.ToUpper(m[2]), Zip: m[3]}, true
			}
			// Keep an unparseable structured value as city rather than
			// discarding the field entirely.
			return model.Location{City: strings.TrimSpace(v)}, true
		}
	}

	for _, text := range []string{p.Description(), p.Body()} {
		if m := proseLocation.FindStringSubmatch(text); m != nil {
			return model.Location{City: strings.TrimSpace(m[1]), State: strings.ToUpper(m[2]), Zip: m[3]}, true
		}
	}
	return model.Location{}, false
}

// colorStopWords are filler words that must not be captured as a color.
var colorStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "with": true, "and": true,
	"its": true, "this": true, "that": true, "is": true, "was": true,
}

// paintToSample detects custom-paint phrasing so the underlying named
// color is extracted instead of the generic marker.
var paintToSample = regexp.MustCompile(`(?i)\bpaint[- ]to[- ]sample\b:?\s*`)

// exteriorProse matches "finished in <color>", "refinished in <color>".
// The capture stays case-sensitive so the color run ends at the first
// lowercase word ("finished in Miami Blue over black leather").
var exteriorProse = regexp.MustCompile(`\b(?i:(?:re)?finished in)\s+((?:(?i:paint[- ]to[- ]sample)\s+)?[A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*){0,3})`)

// interiorProse matches "over <color> leather/interior/upholstery".
var interiorProse = regexp.MustCompile(`(?i)\bover\s+([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*){0,2})\s+(?:leather|leatherette|cloth|upholstery|interior)\b`)

// ExteriorColor resolves the paint color: labeled region first, then the
// "finished in ..." description idiom.
func ExteriorColor(p *page.Page) (string, bool) {
	for _, label := range []string{"exterior color", "exterior", "paint"} {
		if v := p.StructuredValue(label); v != "" {
			return cleanColor(v), true
		}
	}
	for _, text := range []string{p.Description(), p.Body()} {
		if m := exteriorProse.FindStringSubmatch(text); m != nil {
			if c := cleanColor(m[1]); c != "" {
				return c, true
			}
		}
	}
	return "", false
}

// InteriorColor resolves the cabin color.
func InteriorColor(p *page.Page) (string, bool) {
	for _, label := range []string{"interior color", "interior"} {
		if v := p.StructuredValue(label); v != "" {
			return cleanColor(v), true
		}
	}
	for _, text := range []string{p.Description(), p.Body()} {
		if m := interiorProse.FindStringSubmatch(text); m != nil {
			if c := cleanColor(m[1]); c != "" {
				return c, true
			}
		}
	}
	return "", false
}

// cleanColor strips the Paint to Sample marker, drops stop words, and
// title-cases the remaining color name.
func cleanColor(s string) string {
	s = paintToSample.ReplaceAllString(s, "")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if colorStopWords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(kept, " "))
}

// transmissionProse matches common gearbox phrasings in descriptions.
var transmissionProse = regexp.MustCompile(`(?i)\b(\d[\s-]?speed\s+(?:manual|automatic)(?:\s+transaxle|\s+transmission)?|PDK|Tiptronic(?:\s+S)?|dual[- ]clutch|automatic transmission|manual transmission)\b`)

// Transmission resolves the gearbox description.
func Transmission(p *page.Page) (string, bool) {
	for _, label := range []string{"transmission", "gearbox"} {
		if v := p.StructuredValue(label); v != "" {
			return strings.TrimSpace(v), true
		}
	}
	for _, text := range []string{p.Description(), p.Body()} {
		if m := transmissionProse.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// OptionsRaw collects freeform option/equipment text: a labeled region
// first, then an equipment list's items joined for later normalization.
func OptionsRaw(p *page.Page) string {
	for _, label := range []string{"options", "equipment"} {
		if v := p.StructuredValue(label); v != "" {
			return v
		}
	}
	var items []string
	p.Doc().Find(".listing-options li, .equipment li, ul.options li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			items = append(items, t)
		}
	})
	return strings.Join(items, ", ")
}

// TitleYear pulls the model year from the listing title.
func TitleYear(p *page.Page, rules Rules) (int, bool) {
	m := yearToken.FindString(p.Title())
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil || !rules.yearValid(year) {
		return 0, false
	}
	return year, true
}
