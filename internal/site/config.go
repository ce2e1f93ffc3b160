package site

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// PaginationScheme describes how a source pages its search results.
type PaginationScheme string

const (
	// PaginationQueryPage appends ?page=N to the search URL.
	PaginationQueryPage PaginationScheme = "query_page"
	// PaginationPathPage appends /page/N/ to the search path.
	PaginationPathPage PaginationScheme = "path_page"
	// PaginationNone means a single unpaginated result page.
	PaginationNone PaginationScheme = "none"
)

// FieldOverrides substitutes individual extractor functions for sites
// whose markup defeats the shared defaults. A nil field keeps the shared
// extractor; this is composition, not inheritance — overrides are
// explicit function substitutions on a config value.
type FieldOverrides struct {
	Mileage     func(p *page.Page) (int, bool)
	Price       extract.PriceOverride
	ListingURLs func(p *page.Page) []string
}

// Config parameterizes the shared extraction driver for one source. Each
// record is immutable after registration; adding a source means adding a
// record, not subclassing control flow.
type Config struct {
	// Name is the source identifier used as the registry key and the
	// persistence `source` tag.
	Name string

	// BaseURL is the site origin, used to absolutize listing links.
	BaseURL string

	// SearchPath is a format string producing the search path for a
	// model query, e.g. "/porsche/%s/".
	SearchPath string

	// ListingLinkSelector finds detail-page links on a search page.
	ListingLinkSelector string

	// Pagination selects how search result pages advance.
	Pagination PaginationScheme

	// Rules carries the per-site extraction tunables.
	Rules extract.Rules

	// Overrides optionally replaces individual field extractors.
	Overrides FieldOverrides
}

// SearchURL builds the search URL for a model slug and 1-based page
// number according to the site's pagination scheme.
func (c Config) SearchURL(modelSlug string, pageNum int) string {
	path := fmt.Sprintf(c.SearchPath, url.PathEscape(slugify(modelSlug)))
	base := strings.TrimSuffix(c.BaseURL, "/") + path

	if pageNum <= 1 {
		return base
	}
	switch c.Pagination {
	case PaginationQueryPage:
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%spage=%d", base, sep, pageNum)
	case PaginationPathPage:
		return fmt.Sprintf("%s/page/%d/", strings.TrimSuffix(base, "/"), pageNum)
	default:
		return base
	}
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
