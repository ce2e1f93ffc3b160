package site

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/normalize"
	"github.com/gearshift-group/lot-scraper/internal/page"
	"github.com/gearshift-group/lot-scraper/internal/resilience"
)

func testDriver(t *testing.T, name string) *Driver {
	t.Helper()
	cfg, err := Lookup(name)
	require.NoError(t, err)
	mt := normalize.NewModelTrimNormalizer(nil, "", resilience.DefaultRetryConfig())
	opts := normalize.NewOptionsNormalizer(nil, "", resilience.DefaultRetryConfig())
	return NewDriver(cfg, mt, opts)
}

func TestDriver_ExtractSoldListing(t *testing.T) {
	d := testDriver(t, "pcarmarket")

	detail, reason, err := d.Extract(context.Background(), model.RawPage{
		HTML: `<html><body>
			<h1>2018 Porsche 911 GT3 Touring</h1>
			<div class="sale-status">Sold for $185,000 on 4/12/23</div>
			<div class="description">Finished in GT Silver over Black leather, chassis WP0AC2A92JS176000.</div>
		</body></html>`,
		Type:   model.PageTypeDetail,
		URL:    "https://www.pcarmarket.com/auction/2018-911-gt3-touring",
		Source: "pcarmarket",
	})
	require.NoError(t, err)
	require.Equal(t, extract.RejectNone, reason)
	require.NotNil(t, detail)

	assert.Equal(t, model.StatusSold, detail.Status)
	require.NotNil(t, detail.Price)
	assert.Equal(t, 185000, *detail.Price)
	assert.Equal(t, "911", detail.Model)
	assert.Equal(t, "GT3 Touring", detail.Trim)
	assert.Equal(t, "991.2", detail.Generation)
	require.NotNil(t, detail.Year)
	assert.Equal(t, 2018, *detail.Year)
	assert.Equal(t, "WP0AC2A92JS176000", detail.VIN)
}

func TestDriver_PriceOverrideRescuesSoldListing(t *testing.T) {
	// The price lives only in bespoke markup the shared extractor never
	// sees. The override must feed the sold-price check, not patch a
	// record that was already rejected.
	cfg := Config{
		Name:    "hammerhouse",
		BaseURL: "https://hammer.example.com",
		Rules:   extract.Rules{MinPrice: 10000, PlatformLaunchYear: 2019},
		Overrides: FieldOverrides{
			Price: func(p *page.Page, rules extract.Rules) (int, bool) {
				return extract.ParseNumberToken(p.Doc().Find(".hammer").Text())
			},
		},
	}
	d := NewDriver(cfg, nil, nil)

	detail, reason, err := d.Extract(context.Background(), model.RawPage{
		HTML: `<html><body>
			<h1>2018 Porsche 911 GT3</h1>
			<div class="listing-sold">This auction has ended.</div>
			<div class="hammer">152,000</div>
		</body></html>`,
		Type:   model.PageTypeDetail,
		URL:    "https://hammer.example.com/lot/2018-911-gt3",
		Source: "hammerhouse",
	})
	require.NoError(t, err)
	require.Equal(t, extract.RejectNone, reason)
	require.NotNil(t, detail)
	require.NotNil(t, detail.Price)
	assert.Equal(t, 152000, *detail.Price)
}

func TestDriver_RejectionPassesThrough(t *testing.T) {
	d := testDriver(t, "pcarmarket")

	detail, reason, err := d.Extract(context.Background(), model.RawPage{
		HTML:   `<html><body><h1>2018 Porsche 911 GT3</h1><p>Nothing conclusive.</p></body></html>`,
		Type:   model.PageTypeDetail,
		URL:    "https://www.pcarmarket.com/auction/unknown",
		Source: "pcarmarket",
	})
	require.NoError(t, err)
	assert.Nil(t, detail)
	assert.Equal(t, extract.RejectUnknownStatus, reason)
}

func TestDriver_HintsSeedNormalizationWhenTitleUnclassifiable(t *testing.T) {
	d := testDriver(t, "pcarmarket")

	detail, reason, err := d.Extract(context.Background(), model.RawPage{
		HTML: `<html><body>
			<h1>One-Owner Sports Car</h1>
			<div class="sold-for">Sold for $85,000</div>
		</body></html>`,
		Type:   model.PageTypeDetail,
		URL:    "https://www.pcarmarket.com/auction/one-owner",
		Source: "pcarmarket",
		Hints:  model.Hints{Model: "718 Cayman", Trim: "GT4"},
	})
	require.NoError(t, err)
	require.Equal(t, extract.RejectNone, reason)
	require.NotNil(t, detail)

	assert.Equal(t, "718 Cayman", detail.Model)
	assert.Equal(t, "GT4", detail.Trim)
}

func TestDriver_ListingURLsAbsolutized(t *testing.T) {
	d := testDriver(t, "pcarmarket")

	urls, err := d.ListingURLs(model.RawPage{
		HTML: `<html><body>
			<div class="post-item"><a href="/auction/2018-911-gt3/">GT3</a></div>
			<div class="post-item"><a href="https://www.pcarmarket.com/auction/2016-cayman-gt4/">GT4</a></div>
			<div class="post-item"><a href="/auction/2018-911-gt3/">GT3 again</a></div>
		</body></html>`,
		Type: model.PageTypeSearch,
		URL:  "https://www.pcarmarket.com/auction/completed/?q=911",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.pcarmarket.com/auction/2018-911-gt3/",
		"https://www.pcarmarket.com/auction/2016-cayman-gt4/",
	}, urls)
}

func TestBatMileageOverride_EssentialsRow(t *testing.T) {
	d := testDriver(t, "bringatrailer")

	detail, reason, err := d.Extract(context.Background(), model.RawPage{
		HTML: `<html><body>
			<h1>2006 Porsche 911 Carrera S Coupe</h1>
			<div class="sold-for">Sold for $52,000</div>
			<ul class="essentials"><li>52k Miles Shown</li><li>Chassis: WP0AB29986S740000</li></ul>
		</body></html>`,
		Type:   model.PageTypeDetail,
		URL:    "https://bringatrailer.com/listing/2006-porsche-911-52",
		Source: "bringatrailer",
	})
	require.NoError(t, err)
	require.Equal(t, extract.RejectNone, reason)
	require.NotNil(t, detail)

	require.NotNil(t, detail.Mileage)
	assert.Equal(t, 52000, *detail.Mileage)
}

func TestBatListingURLs_RelativeLinksResolved(t *testing.T) {
	d := testDriver(t, "bringatrailer")

	urls, err := d.ListingURLs(model.RawPage{
		HTML: `<html><body>
			<a href="/listing/2018-porsche-911-gt3-85/">2018 GT3</a>
			<a href="/about">About</a>
		</body></html>`,
		Type: model.PageTypeSearch,
		URL:  "https://bringatrailer.com/porsche/911-gt3/",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://bringatrailer.com/listing/2018-porsche-911-gt3-85/"}, urls)
}
