package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Regions(t *testing.T) {
	p, err := Parse(`<html><head><title>Fallback Title</title></head><body>
		<nav>Site navigation</nav>
		<h1 class="listing-title">2018 Porsche 911 GT3</h1>
		<div class="description">Finished in Miami Blue. <script>track()</script></div>
		<div class="comments">Great car! Mine shows 90,000 miles.</div>
		<footer>Copyright</footer>
	</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "2018 Porsche 911 GT3", p.Title())
	assert.Contains(t, p.Description(), "Miami Blue")
	assert.NotContains(t, p.Description(), "track()")

	body := p.Body()
	assert.Contains(t, body, "Miami Blue")
	assert.NotContains(t, body, "90,000 miles")
	assert.NotContains(t, body, "Site navigation")
	assert.NotContains(t, body, "Copyright")

	assert.Contains(t, p.Comments(), "90,000 miles")
}

func TestTitle_FallsBackToDocumentTitle(t *testing.T) {
	p, err := Parse(`<html><head><title>2016 Cayman GT4</title></head><body><p>text</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "2016 Cayman GT4", p.Title())
}

func TestStructuredValue_DefinitionList(t *testing.T) {
	p, err := Parse(`<html><body><dl>
		<dt>Mileage</dt><dd>25,467</dd>
		<dt>VIN</dt><dd>WP0AC2A94JS175160</dd>
	</dl></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "25,467", p.StructuredValue("mileage"))
	assert.Equal(t, "WP0AC2A94JS175160", p.StructuredValue("vin"))
	assert.Empty(t, p.StructuredValue("price"))
}

func TestStructuredValue_EssentialsList(t *testing.T) {
	p, err := Parse(`<html><body><ul class="essentials">
		<li>Location: Scottsdale, AZ 85251</li>
		<li>Transmission: 6-Speed Manual</li>
	</ul></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Scottsdale, AZ 85251", p.StructuredValue("location"))
	assert.Equal(t, "6-Speed Manual", p.StructuredValue("transmission"))
}

func TestMetaContent(t *testing.T) {
	p, err := Parse(`<html><head>
		<meta itemprop="endDate" content="2023-04-12T17:00:00Z">
	</head><body></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "2023-04-12T17:00:00Z", p.MetaContent("meta[itemprop='endDate']"))
	assert.Empty(t, p.MetaContent("meta[itemprop='startDate']"))
}

func TestBody_CollapsesWhitespace(t *testing.T) {
	p, err := Parse("<html><body><p>two\n\n   words</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "two words", p.Body())
}
