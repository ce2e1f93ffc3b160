package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/page"
)

// saleStatusSelectors locate the structured sale-status region.
var saleStatusSelectors = ".listing-available-info, .sale-status, .sold-banner, .listing-stats"

// soldPricePattern matches an explicit sold phrase with a currency amount.
var soldPricePattern = regexp.MustCompile(`(?i)(?:sold for|winning bid|final price)[:\s]*\$\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([kK])?\b`)

// priceClassSelectors match elements whose naming suggests a final price.
var priceClassSelectors = "[class*='sold-price'], [class*='final-price'], [class*='price-sold'], [class*='winning-bid']"

// dollarAmount extracts a bare currency amount from an element's text.
var dollarAmount = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([kK])?\b`)

// PriceOverride resolves a sale price from site-specific markup. The
// assembler consults it before the shared extractor and before the
// sold-without-price rejection, so a site whose price lives in bespoke
// elements can still produce a record.
type PriceOverride func(p *page.Page, rules Rules) (int, bool)

// Price resolves the realized sale price. Only meaningful for sold
// listings; the assembler never calls it otherwise. Precedence: the
// structured sale-status region, then a sold-phrase search over the full
// page text, then elements named like a sold price. A valid candidate
// must clear the per-site minimum; nothing clearing it means absent,
// never zero.
func Price(p *page.Page, rules Rules) (int, bool) {
	// Tier 1: structured sale-status region with an explicit sold phrase.
	var fromRegion int
	p.Doc().Find(saleStatusSelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if m := soldPricePattern.FindString(text); m != "" {
			if v, ok := parseNumber(stripCurrency(m)); ok {
				fromRegion = v
				return false
			}
		}
		return true
	})
	if v, ok := validatePrice(fromRegion, rules); ok {
		return v, true
	}

	// Tier 2: sold phrase anywhere in the page text.
	if m := soldPricePattern.FindString(p.Body()); m != "" {
		if v, ok := parseNumber(stripCurrency(m)); ok {
			if v, ok := validatePrice(v, rules); ok {
				return v, true
			}
		}
	}

	// Tier 3: elements whose class naming suggests a final price.
	var fromClass int
	p.Doc().Find(priceClassSelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := dollarAmount.FindString(s.Text()); m != "" {
			if v, ok := parseNumber(stripCurrency(m)); ok {
				fromClass = v
				return false
			}
		}
		return true
	})
	if v, ok := validatePrice(fromClass, rules); ok {
		return v, true
	}

	return 0, false
}

// validatePrice applies the cents-magnitude correction and the per-site
// minimum threshold.
func validatePrice(v int, rules Rules) (int, bool) {
	if v <= 0 {
		return 0, false
	}
	if v > centsMagnitude {
		corrected := v / 100
		zap.L().Debug("price magnitude suggests cents, dividing by 100",
			zap.Int("raw", v),
			zap.Int("corrected", corrected),
		)
		v = corrected
	}
	if !rules.priceValid(v) {
		zap.L().Debug("price below site minimum, discarding",
			zap.Int("price", v),
			zap.Int("min", rules.MinPrice),
		)
		return 0, false
	}
	return v, true
}

// stripCurrency trims the phrase prefix so parseNumber sees the amount
// first rather than a digit inside the phrase.
func stripCurrency(m string) string {
	if i := strings.IndexByte(m, '$'); i >= 0 {
		return m[i+1:]
	}
	return m
}
