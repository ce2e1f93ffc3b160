package site

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/normalize"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// Driver runs the shared extraction flow for one configured source and
// enriches records through the normalizers. One driver serves many pages;
// it holds no per-page state.
type Driver struct {
	cfg       Config
	modelTrim *normalize.ModelTrimNormalizer
	options   *normalize.OptionsNormalizer
}

// NewDriver builds a driver for the given source config. Either
// normalizer may be nil to skip that enrichment.
func NewDriver(cfg Config, modelTrim *normalize.ModelTrimNormalizer, options *normalize.OptionsNormalizer) *Driver {
	return &Driver{cfg: cfg, modelTrim: modelTrim, options: options}
}

// Config returns the driver's source configuration.
func (d *Driver) Config() Config { return d.cfg }

// Extract parses one detail page, assembles the record, and enriches it
// with normalized model/trim and options. A nil detail with a non-empty
// reason is a rejection, not an error; errors are reserved for HTML that
// cannot be parsed at all.
func (d *Driver) Extract(ctx context.Context, raw model.RawPage) (*model.ListingDetail, extract.RejectReason, error) {
	p, err := page.Parse(raw.HTML)
	if err != nil {
		return nil, extract.RejectNone, err
	}

	rules := d.cfg.Rules
	detail, reason := d.assemble(p, raw, rules)
	if reason != extract.RejectNone {
		return nil, reason, nil
	}

	if d.modelTrim != nil {
		mt := d.modelTrim.Normalize(ctx, detail.Title)
		if mt.IsZero() && raw.Hints.Model != "" {
			mt = d.modelTrim.Normalize(ctx, raw.Hints.Model+" "+raw.Hints.Trim)
		}
		detail.Model = mt.Model
		detail.Trim = mt.Trim
		detail.Generation = mt.Generation
		if detail.Year == nil && mt.Year > 0 {
			detail.Year = model.IntPtr(mt.Year)
		}
	}

	if d.options != nil && detail.OptionsRaw != "" {
		detail.OptionsNormalized = d.options.Normalize(ctx, detail.OptionsRaw)
	}

	zap.L().Info("listing extracted",
		zap.String("source", d.cfg.Name),
		zap.String("url", detail.SourceURL),
		zap.String("status", string(detail.Status)),
	)
	return detail, extract.RejectNone, nil
}

// assemble applies per-site extractor overrides around the shared
// assembler. The price override goes into the assembler itself so a
// bespoke price element can satisfy the sold-without-price check; the
// mileage override re-resolves on top of the shared result.
func (d *Driver) assemble(p *page.Page, raw model.RawPage, rules extract.Rules) (*model.ListingDetail, extract.RejectReason) {
	ov := d.cfg.Overrides
	detail, reason := extract.Assemble(p, raw, rules, ov.Price)

	if detail != nil && ov.Mileage != nil {
		if v, ok := ov.Mileage(p); ok {
			detail.Mileage = model.IntPtr(v)
		}
	}
	return detail, reason
}

// ListingURLs extracts absolute detail-page URLs from a search page.
func (d *Driver) ListingURLs(raw model.RawPage) ([]string, error) {
	p, err := page.Parse(raw.HTML)
	if err != nil {
		return nil, err
	}
	if d.cfg.Overrides.ListingURLs != nil {
		var out []string
		for _, href := range d.cfg.Overrides.ListingURLs(p) {
			if abs := d.absolutize(href); abs != "" {
				out = append(out, abs)
			}
		}
		return out, nil
	}

	seen := map[string]bool{}
	var out []string
	p.Doc().Find(d.cfg.ListingLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs := d.absolutize(strings.TrimSpace(href))
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	})
	return out, nil
}

func (d *Driver) absolutize(href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	base, err := url.Parse(d.cfg.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
