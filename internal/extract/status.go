package extract

import (
	"regexp"
	"strings"

	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/page"
)

// Active-auction markers. Checked before any sold marker: live auction
// pages routinely show "sold for" fragments in sidebars of other
// completed lots, and an in-progress auction must never be read as sold.
var (
	activeSelectors = strings.Join([]string{
		".bid-button",
		"button.place-bid",
		".countdown",
		".countdown-timer",
		"[data-countdown]",
		".auction-timer",
	}, ", ")

	activeTextPattern = regexp.MustCompile(`(?i)\b(current bid|time remaining|bid now|place a bid|auction ends in|ending in)\b`)
)

// Sold markers, consulted only when no active marker is present.
var (
	soldSelectors = strings.Join([]string{
		".sold-for",
		".listing-sold",
		".sold-price",
		".lot-sold",
	}, ", ")

	soldTextPattern = regexp.MustCompile(`(?i)(sold for\s*\$[\d,]+|auction ended|sale ended|this auction has ended)`)
)

// Status classifies the listing page as a live auction or a completed
// sale. Neither marker set matching yields StatusUnknown, which the
// assembler treats as a rejection: price and date are never extracted
// from a page whose state could not be established.
func Status(p *page.Page) model.AuctionStatus {
	if p.Doc().Find(activeSelectors).Length() > 0 {
		return model.StatusActive
	}
	if activeTextPattern.MatchString(p.Body()) || activeTextPattern.MatchString(p.Title()) {
		return model.StatusActive
	}

	if p.Doc().Find(soldSelectors).Length() > 0 {
		return model.StatusSold
	}
	if soldTextPattern.MatchString(p.Body()) {
		return model.StatusSold
	}

	return model.StatusUnknown
}
