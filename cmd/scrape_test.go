package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearshift-group/lot-scraper/internal/site"
)

type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) FetchHTML(_ context.Context, url string) (string, error) {
	html, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("no stub for %s", url)
	}
	return html, nil
}

func testSearchDriver(t *testing.T) *site.Driver {
	t.Helper()
	cfg, err := site.Lookup("bringatrailer")
	require.NoError(t, err)
	return site.NewDriver(cfg, nil, nil)
}

func TestCollectListingURLs_WalksPagesAndDedups(t *testing.T) {
	driver := testSearchDriver(t)

	f := &stubFetcher{pages: map[string]string{
		"https://bringatrailer.com/porsche/911-gt3/": `<html><body>
			<a href="/listing/2018-gt3-1/">one</a>
			<a href="/listing/2021-gt3-2/">two</a>
		</body></html>`,
		"https://bringatrailer.com/porsche/911-gt3/?page=2": `<html><body>
			<a href="/listing/2021-gt3-2/">two again</a>
			<a href="/listing/2015-gt3-3/">three</a>
		</body></html>`,
		"https://bringatrailer.com/porsche/911-gt3/?page=3": `<html><body></body></html>`,
	}}

	urls, err := collectListingURLs(context.Background(), f, driver, "911 GT3", 5)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://bringatrailer.com/listing/2018-gt3-1/",
		"https://bringatrailer.com/listing/2021-gt3-2/",
		"https://bringatrailer.com/listing/2015-gt3-3/",
	}, urls)
}

func TestCollectListingURLs_StopsOnRepeatOnlyPage(t *testing.T) {
	driver := testSearchDriver(t)

	f := &stubFetcher{pages: map[string]string{
		"https://bringatrailer.com/porsche/911/": `<html><body>
			<a href="/listing/2018-gt3-1/">one</a>
		</body></html>`,
		// Pagination wrapped: same listing again.
		"https://bringatrailer.com/porsche/911/?page=2": `<html><body>
			<a href="/listing/2018-gt3-1/">one</a>
		</body></html>`,
	}}

	urls, err := collectListingURLs(context.Background(), f, driver, "911", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://bringatrailer.com/listing/2018-gt3-1/"}, urls)
}

func TestCollectListingURLs_RespectsMaxPages(t *testing.T) {
	driver := testSearchDriver(t)

	f := &stubFetcher{pages: map[string]string{
		"https://bringatrailer.com/porsche/911/": `<html><body>
			<a href="/listing/2018-gt3-1/">one</a>
		</body></html>`,
	}}

	urls, err := collectListingURLs(context.Background(), f, driver, "911", 1)
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}
