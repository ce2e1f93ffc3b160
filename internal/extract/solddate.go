package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/page"
)

// Date patterns seen on auction platforms: "8/29/22", "08/29/2022",
// "August 29, 2022", "Aug 29, 2022".
var (
	slashDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	wordDate  = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+(\d{1,2}),?\s+(\d{4})\b`)

	// "sold for $X on 8/29/22" — the structured sale-status phrasing.
	soldOnPattern = regexp.MustCompile(`(?i)\bon\s+((?:\d{1,2}/\d{1,2}/\d{2,4})|(?:[A-Za-z]+\.?\s+\d{1,2},?\s+\d{4}))`)
)

// endDateMetaSelectors are meta tags platforms use for auction end dates.
// Only tags that describe the sale end qualify; page timestamps like
// article:modified_time track edits, not the sale, and must not stand in
// for a missing sold date.
var endDateMetaSelectors = []string{
	"meta[itemprop='endDate']",
	"meta[property='product:availability:end_date']",
}

// SoldDate resolves when the sale completed. Invoked only for sold
// listings. Precedence: the "on <date>" phrase in the sale-status region,
// then end-date meta tags, then a generic date search over body text.
// Dates outside the platform-operation window are logged and discarded —
// an absent sold date stays absent, and in particular is never backfilled
// from the scrape or record-creation time.
func SoldDate(p *page.Page, rules Rules) (time.Time, bool) {
	regionText := p.Doc().Find(saleStatusSelectors).Text()
	if m := soldOnPattern.FindStringSubmatch(regionText); m != nil {
		if t, ok := parseListingDate(m[1], rules); ok {
			return t, true
		}
	}

	for _, sel := range endDateMetaSelectors {
		content := p.MetaContent(sel)
		if content == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, content); err == nil {
			if dateInWindow(t, rules) {
				return t, true
			}
			logOutOfWindow(content, t, rules)
			continue
		}
		if t, ok := parseListingDate(content, rules); ok {
			return t, true
		}
	}

	body := p.Body()
	if m := soldOnPattern.FindStringSubmatch(body); m != nil {
		if t, ok := parseListingDate(m[1], rules); ok {
			return t, true
		}
	}
	for _, pat := range []*regexp.Regexp{wordDate, slashDate} {
		if m := pat.FindString(body); m != "" {
			if t, ok := parseListingDate(m, rules); ok {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// parseListingDate parses a date string in any supported format and
// validates it against the platform window.
func parseListingDate(s string, rules Rules) (time.Time, bool) {
	s = strings.TrimSpace(s)

	var t time.Time
	var parsed bool

	if m := slashDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year = resolveTwoDigitYear(year)
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			t = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			parsed = true
		}
	}

	if !parsed {
		for _, layout := range []string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan. 2, 2006", "Jan 2 2006", "2006-01-02"} {
			if v, err := time.Parse(layout, s); err == nil {
				t = v
				parsed = true
				break
			}
		}
	}

	if !parsed {
		return time.Time{}, false
	}
	if !dateInWindow(t, rules) {
		logOutOfWindow(s, t, rules)
		return time.Time{}, false
	}
	return t, true
}

// resolveTwoDigitYear maps a two-digit year into the platform's operating
// era: "22" means 2022 regardless of when the scrape runs. The pivot is a
// heuristic; dates it misclassifies are caught by the window check.
func resolveTwoDigitYear(yy int) int {
	if yy <= 49 {
		return 2000 + yy
	}
	return 1900 + yy
}

// dateInWindow checks the plausible platform-operation window.
func dateInWindow(t time.Time, rules Rules) bool {
	launch := rules.PlatformLaunchYear
	if launch <= 0 {
		launch = 2000
	}
	return t.Year() >= launch && t.Year() <= rules.now().Year()+1
}

func logOutOfWindow(raw string, t time.Time, rules Rules) {
	zap.L().Warn("sold date outside platform window, discarding",
		zap.String("raw", raw),
		zap.Time("parsed", t),
		zap.Int("launch_year", rules.PlatformLaunchYear),
	)
}
