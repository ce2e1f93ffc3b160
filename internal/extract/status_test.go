package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gearshift-group/lot-scraper/internal/model"
)

func TestStatus_SoldBanner(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<div class="sold-for">Sold for $152,000</div>
	</body></html>`)

	assert.Equal(t, model.StatusSold, Status(p))
}

func TestStatus_SoldPhraseInBody(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<p>This lot sold for $152,000 on August 29, 2022.</p>
	</body></html>`)

	assert.Equal(t, model.StatusSold, Status(p))
}

func TestStatus_ActiveBeatsSoldFragments(t *testing.T) {
	// Live auction page whose sidebar quotes other completed lots. The
	// countdown marker must win over the stray sold-for text.
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<div class="countdown-timer">2 days 4 hours</div>
		<div class="sidebar"><p>A similar example sold for $148,500 last week.</p></div>
	</body></html>`)

	assert.Equal(t, model.StatusActive, Status(p))
}

func TestStatus_ActiveTextMarker(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<p>Current bid: $95,000. Time remaining: 3 hours.</p>
	</body></html>`)

	assert.Equal(t, model.StatusActive, Status(p))
}

func TestStatus_NoMarkersUnknown(t *testing.T) {
	p := mustPage(t, `<html><body>
		<h1>2018 Porsche 911 GT3</h1>
		<p>A lovely example in Guards Red.</p>
	</body></html>`)

	assert.Equal(t, model.StatusUnknown, Status(p))
}
