package store

import (
	"context"
	"time"

	"github.com/gearshift-group/lot-scraper/internal/model"
)

// ListingFilter specifies criteria for listing queries.
type ListingFilter struct {
	Source string              `json:"source,omitempty"`
	Status model.AuctionStatus `json:"status,omitempty"`
	Model  string              `json:"model,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// PricePoint is one observed price for a listing.
type PricePoint struct {
	Price      int       `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Store defines the persistence interface the extraction pipeline hands
// records to. Implementations own insert-vs-update: listings dedup by
// source URL (and VIN when present), and a price change appends to the
// price history series used by downstream analytics.
type Store interface {
	UpsertListing(ctx context.Context, detail *model.ListingDetail) error
	GetListing(ctx context.Context, sourceURL string) (*model.ListingDetail, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]model.ListingDetail, error)
	PriceHistory(ctx context.Context, sourceURL string) ([]PricePoint, error)

	Migrate(ctx context.Context) error
	Close() error
}
