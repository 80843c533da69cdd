// Package parser extracts titles, plain text and crawlable links from HTML.
package parser

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
)

const normalizeFlags = purell.FlagsSafe | purell.FlagRemoveDotSegments

// minContentRunes is the amount of text below which a page is considered
// empty enough to be worth rendering in a browser.
const minContentRunes = 100

type Page struct {
	URL     string
	Title   string
	Content string
}

type Link struct {
	URL string
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse reads an HTML document and returns its title, plain text and every
// anchor resolved against baseURL. Anchors carrying a fragment are kept
// unresolved so callers can reject them.
func (p *Parser) Parse(htmlContent string, baseURL string) (*Page, []Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, err
	}

	page := &Page{
		URL:     baseURL,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: PlainText(htmlContent),
	}
	return page, p.extractLinks(doc, baseURL), nil
}

func (p *Page) HasSufficientContent() bool {
	return utf8.RuneCountInString(strings.TrimSpace(p.Content)) >= minContentRunes
}

func (p *Parser) extractLinks(doc *goquery.Document, baseURL string) []Link {
	var links []Link
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		absoluteURL := resolveURL(baseURL, strings.TrimSpace(href))
		if absoluteURL == "" {
			return
		}
		if _, dup := seen[absoluteURL]; dup {
			return
		}
		seen[absoluteURL] = struct{}{}
		links = append(links, Link{URL: absoluteURL})
	})

	return links
}

func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	relURL, err := url.Parse(href)
	if err != nil {
		return ""
	}

	absoluteURL := baseURL.ResolveReference(relURL)
	if strings.Contains(href, "#") {
		// Leave the fragment in place; IsCrawlable rejects it.
		return absoluteURL.String()
	}
	return normalizeURL(absoluteURL)
}

func normalizeURL(u *url.URL) string {
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return purell.NormalizeURL(u, normalizeFlags)
}

// NormalizeURLString applies the same normalization the parser uses for
// discovered links. Unparseable input is returned unchanged.
func NormalizeURLString(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	return normalizeURL(u)
}

// PathOf returns the request URI of rawURL relative to its host: "/" for the
// site root, "/a/b?x=1" for deeper pages.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.RequestURI()
}
