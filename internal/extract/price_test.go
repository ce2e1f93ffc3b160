package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testRules() Rules {
	return Rules{
		MinPrice:           15000,
		VINPrefixes:        []string{"WP0", "WP1"},
		PlatformLaunchYear: 2014,
		Now: func() time.Time {
			return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

func TestPrice_SaleStatusRegion(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<div class="listing-available-info">Sold for $152,000 on 8/29/22</div>
	</body></html>`)

	v, ok := Price(p, testRules())
	assert.True(t, ok)
	assert.Equal(t, 152000, v)
}

func TestPrice_BodyPhraseFallback(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<p>Winning bid: $148,500 after a late flurry.</p>
	</body></html>`)

	v, ok := Price(p, testRules())
	assert.True(t, ok)
	assert.Equal(t, 148500, v)
}

func TestPrice_ClassNamedElement(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<span class="final-price-display">$149,000</span>
	</body></html>`)

	v, ok := Price(p, testRules())
	assert.True(t, ok)
	assert.Equal(t, 149000, v)
}

func TestPrice_BelowMinimumDiscarded(t *testing.T) {
	// Parts-listing magnitude; the per-site floor rejects it.
	p := mustPage(t, `<html><body>
		<h1>Porsche 911 GT3 wheel set</h1>
		<div class="sale-status">Sold for $4,200</div>
	</body></html>`)

	_, ok := Price(p, testRules())
	assert.False(t, ok)
}

func TestPrice_CentsMagnitudeCorrected(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<div class="sale-status">Sold for $1,520,000,000</div>
	</body></html>`)

	// 1,520,000,000 reads as cents; corrected to $15,200,000.
	v, ok := Price(p, testRules())
	assert.True(t, ok)
	assert.Equal(t, 15200000, v)
}

func TestPrice_NoCandidateAbsent(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<p>No sale recorded.</p>
	</body></html>`)

	_, ok := Price(p, testRules())
	assert.False(t, ok)
}
