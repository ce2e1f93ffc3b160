package extract

import (
	"time"

	"go.uber.org/zap"

	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// RejectReason explains why a page produced no record.
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectEmptyTitle    RejectReason = "empty_title"
	RejectUnknownStatus RejectReason = "unknown_status"
	RejectSoldNoPrice   RejectReason = "sold_without_price"
)

// Assemble runs the field extractors against one parsed detail page and
// builds a ListingDetail. It rejects the whole record when the title is
// empty, the auction status cannot be established, or a sold listing has
// no valid price. Partial absence of any other field is expected and
// does not fail the record. A non-nil priceOverride is consulted ahead
// of the shared price extractor, so it participates in the
// sold-without-price decision rather than patching its outcome. The
// returned detail is complete except for normalized model/trim/options,
// which the caller enriches afterward.
func Assemble(p *page.Page, raw model.RawPage, rules Rules, priceOverride PriceOverride) (*model.ListingDetail, RejectReason) {
	title := p.Title()
	if title == "" {
		return nil, RejectEmptyTitle
	}

	status := Status(p)
	if status == model.StatusUnknown {
		zap.L().Info("listing status unknown, rejecting",
			zap.String("url", raw.URL),
		)
		return nil, RejectUnknownStatus
	}

	detail := &model.ListingDetail{
		Title:     title,
		SourceURL: raw.URL,
		Source:    raw.Source,
		Status:    status,
		ScrapedAt: time.Now().UTC(),
	}

	if v, ok := Mileage(p); ok {
		detail.Mileage = model.IntPtr(v)
	}
	if v, ok := TitleYear(p, rules); ok {
		detail.Year = model.IntPtr(v)
	}
	if v, ok := VIN(p, rules); ok {
		detail.VIN = v
	}
	if loc, ok := Location(p); ok {
		detail.Location = loc
	}
	if v, ok := ExteriorColor(p); ok {
		detail.ExteriorColor = v
	}
	if v, ok := InteriorColor(p); ok {
		detail.InteriorColor = v
	}
	if v, ok := Transmission(p); ok {
		detail.Transmission = v
	}
	detail.OptionsRaw = OptionsRaw(p)

	// Price and sold date are only trusted on completed sales.
	if status == model.StatusSold {
		var v int
		var ok bool
		if priceOverride != nil {
			v, ok = priceOverride(p, rules)
		}
		if !ok {
			v, ok = Price(p, rules)
		}
		if !ok {
			zap.L().Info("sold listing without valid price, rejecting",
				zap.String("url", raw.URL),
			)
			return nil, RejectSoldNoPrice
		}
		detail.Price = model.IntPtr(v)

		if t, ok := SoldDate(p, rules); ok {
			detail.SoldDate = &t
		}
	}

	return detail, RejectNone
}
