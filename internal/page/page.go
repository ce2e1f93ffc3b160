package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// nonContentSelectors lists elements stripped before extracting body text.
const nonContentSelectors = "script, style, nav, header, footer"

// commentSelectors lists discussion/comment regions. Comment text routinely
// mentions other vehicles' mileage and prices, so body-text accessors
// exclude it and expose it separately.
const commentSelectors = ".comments, .comments-list, #comments, .discussion, [data-bind*='comment']"

// Page wraps a parsed listing document with region accessors. It is
// read-only after Parse; extractors share one Page per listing.
type Page struct {
	doc *goquery.Document

	title       string
	description string
	body        string
	comments    string
}

// Parse builds a Page from raw HTML.
func Parse(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "page: parse html")
	}

	p := &Page{doc: doc}
	p.title = extractTitle(doc)
	p.comments = extractComments(doc)
	p.description = extractDescription(doc)
	p.body = extractBody(doc)
	return p, nil
}

// Doc exposes the underlying document for selector-driven extractors.
func (p *Page) Doc() *goquery.Document { return p.doc }

// Title returns the listing heading text.
func (p *Page) Title() string { return p.title }

// Description returns the primary seller-authored description block,
// distinct from full body text and from comments.
func (p *Page) Description() string { return p.description }

// Body returns the page body text with scripts, chrome, and comment
// sections removed.
func (p *Page) Body() string { return p.body }

// Comments returns discussion-section text only. Last-resort search
// material; never trusted over title or structured fields.
func (p *Page) Comments() string { return p.comments }

// StructuredValue finds the value text of a labeled row ("Mileage",
// "VIN", ...) inside definition lists and essentials-style blocks.
// Returns "" when no labeled row matches.
func (p *Page) StructuredValue(label string) string {
	want := strings.ToLower(label)

	// <dt>Label</dt><dd>value</dd>
	var out string
	p.doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(strings.TrimSpace(dt.Text())), want) {
			return true
		}
		if dd := dt.NextFiltered("dd"); dd.Length() > 0 {
			out = strings.TrimSpace(dd.Text())
			return false
		}
		return true
	})
	if out != "" {
		return out
	}

	// Essentials-style "Label: value" list items.
	p.doc.Find(".essentials li, .listing-essentials li, ul.details li, .item-details li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		text := strings.TrimSpace(li.Text())
		low := strings.ToLower(text)
		if !strings.HasPrefix(low, want) {
			return true
		}
		rest := strings.TrimSpace(text[len(label):])
		out = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		return false
	})
	return out
}

// MetaContent returns the content attribute of the first matching meta tag.
func (p *Page) MetaContent(selector string) string {
	if content, ok := p.doc.Find(selector).Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range []string{"h1.listing-title", "h1.post-title", "h1", "title"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func extractComments(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find(commentSelectors).Each(func(_ int, s *goquery.Selection) {
		b.WriteString(strings.TrimSpace(s.Text()))
		b.WriteString("\n")
	})
	return strings.TrimSpace(b.String())
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range []string{".post-excerpt", ".listing-description", ".description", "article .body", "article"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		clone := s.Clone()
		clone.Find(nonContentSelectors).Remove()
		clone.Find(commentSelectors).Remove()
		if text := collapseWhitespace(clone.Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractBody(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	clone := body.Clone()
	clone.Find(nonContentSelectors).Remove()
	clone.Find(commentSelectors).Remove()
	return collapseWhitespace(clone.Text())
}

// collapseWhitespace squeezes runs of whitespace to single spaces so regex
// context windows stay readable in logs.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
