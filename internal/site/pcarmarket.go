package site

import "github.com/gearshift-group/lot-scraper/internal/extract"

// PCARMARKET: structured marque-specialist auction site. The shared
// driver handles it without field overrides; only the selectors and
// thresholds differ.
func init() {
	register(Config{
		Name:                "pcarmarket",
		BaseURL:             "https://www.pcarmarket.com",
		SearchPath:          "/auction/completed/?q=%s",
		ListingLinkSelector: ".post-item a[href*='/auction/'], .auction-card a",
		Pagination:          PaginationQueryPage,
		Rules: extract.Rules{
			MinPrice:           10000,
			VINPrefixes:        []string{"WP0", "WP1"},
			PlatformLaunchYear: 2019,
		},
	})
}
