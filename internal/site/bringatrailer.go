package site

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// Bring a Trailer: auction format with a heavy community comment section.
// The shared extractors already exclude comments; the bespoke pieces here
// are the essentials-block mileage row (labeled "miles shown" rather than
// "Mileage") and the auction-results link layout.
func init() {
	register(Config{
		Name:                "bringatrailer",
		BaseURL:             "https://bringatrailer.com",
		SearchPath:          "/porsche/%s/",
		ListingLinkSelector: "a.listing-card, .auctions-item a[href*='/listing/']",
		Pagination:          PaginationQueryPage,
		Rules: extract.Rules{
			MinPrice:           15000,
			VINPrefixes:        []string{"WP0", "WP1"},
			PlatformLaunchYear: 2014,
		},
		Overrides: FieldOverrides{
			Mileage:     batMileage,
			ListingURLs: batListingURLs,
		},
	})
}

// batEssentialsMiles matches the essentials row phrasing: "8k Miles
// Shown", "52,000 Miles".
var batEssentialsMiles = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})+|\d+)\s*k?\s*miles?\b`)

// batMileage checks the BaT essentials list before handing off to the
// shared tiered extractor.
func batMileage(p *page.Page) (int, bool) {
	var found int
	p.Doc().Find(".essentials li, .listing-essentials li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := batEssentialsMiles.FindString(s.Text())
		if m == "" {
			return true
		}
		if v, ok := extract.ParseNumberToken(m); ok && v > 0 && v < 500_000 {
			found = v
			return false
		}
		return true
	})
	if found > 0 {
		return found, true
	}
	return extract.Mileage(p)
}

func batListingURLs(p *page.Page) []string {
	seen := map[string]bool{}
	var out []string
	p.Doc().Find("a[href*='/listing/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || seen[href] {
			return
		}
		seen[href] = true
		out = append(out, href)
	})
	return out
}
