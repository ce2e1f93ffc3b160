package model

import "time"

// AuctionStatus is the terminal sale classification for a listing page.
type AuctionStatus string

const (
	// StatusSold marks a completed sale; price and sold date are trusted.
	StatusSold AuctionStatus = "sold"
	// StatusActive marks a live auction; price extraction is skipped.
	StatusActive AuctionStatus = "active"
	// StatusUnknown is transitional during classification. A record that
	// resolves to unknown is rejected by the assembler, never persisted.
	StatusUnknown AuctionStatus = "unknown"
)

// PageType tags what kind of page a RawPage holds.
type PageType string

const (
	PageTypeSearch PageType = "search"
	PageTypeDetail PageType = "detail"
)

// RawPage is one fetched page handed to the extraction core. The fetch
// layer owns freshness and encoding; HTML is assumed fully rendered UTF-8.
type RawPage struct {
	HTML   string   `json:"html"`
	Type   PageType `json:"page_type"`
	URL    string   `json:"url"`
	Source string   `json:"source"`
	Hints  Hints    `json:"hints,omitempty"`
}

// Hints carries optional model/trim context from the search URL that
// produced this page, used to pre-seed normalization.
type Hints struct {
	Model string `json:"model,omitempty"`
	Trim  string `json:"trim,omitempty"`
}

// Location is a partial city/state/zip triple. Zero value means absent.
type Location struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

// IsZero reports whether no location component was extracted.
func (l Location) IsZero() bool {
	return l.City == "" && l.State == "" && l.Zip == ""
}

// ListingDetail is one extracted vehicle listing. Absent numeric fields
// are nil pointers, never zero: a zero mileage or price would be
// indistinguishable from real data downstream.
type ListingDetail struct {
	Title             string        `json:"title"`
	SourceURL         string        `json:"source_url"`
	Source            string        `json:"source"`
	Status            AuctionStatus `json:"status"`
	Price             *int          `json:"price,omitempty"`
	Mileage           *int          `json:"mileage,omitempty"`
	Year              *int          `json:"year,omitempty"`
	VIN               string        `json:"vin,omitempty"`
	Model             string        `json:"model,omitempty"`
	Trim              string        `json:"trim,omitempty"`
	Generation        string        `json:"generation,omitempty"`
	ExteriorColor     string        `json:"exterior_color,omitempty"`
	InteriorColor     string        `json:"interior_color,omitempty"`
	Transmission      string        `json:"transmission,omitempty"`
	Location          Location      `json:"location,omitzero"`
	SoldDate          *time.Time    `json:"sold_date,omitempty"`
	OptionsRaw        string        `json:"options_raw,omitempty"`
	OptionsNormalized []string      `json:"options_normalized,omitempty"`
	ScrapedAt         time.Time     `json:"scraped_at"`
}

// IntPtr returns a pointer to v. Convenience for optional numeric fields.
func IntPtr(v int) *int { return &v }
