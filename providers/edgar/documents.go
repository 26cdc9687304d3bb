package edgar

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"finsights/apperrors"
	"finsights/models"
)

// DocumentLinks is the structured result of scanning a filing index page.
// Empty strings mean no link of that class was found.
type DocumentLinks struct {
	DocumentsURL string
	HTMLURL      string
	TextURL      string
}

// Patch converts the links into a URL patch, leaving absent classes nil so
// the merge never clears an already-known URL.
func (l DocumentLinks) Patch() models.FilingURLPatch {
	var p models.FilingURLPatch
	if l.DocumentsURL != "" {
		p.DocumentsURL = &l.DocumentsURL
	}
	if l.HTMLURL != "" {
		p.HTMLURL = &l.HTMLURL
	}
	if l.TextURL != "" {
		p.TextURL = &l.TextURL
	}
	return p
}

// DocumentResolver extracts document URLs from a filing index page. It is
// an interface so the table-scraping heuristic can be swapped for a
// structured index source without touching callers.
type DocumentResolver interface {
	Resolve(page []byte, base *url.URL) (DocumentLinks, error)
}

// NewDocumentResolver returns the HTML table heuristic: scan every table
// row, look in the third and later cells for anchors, resolve each href
// against the registry host, and classify by path suffix. The first
// qualifying link of each class wins; later matches are ignored.
func NewDocumentResolver() DocumentResolver {
	return htmlIndexResolver{}
}

type htmlIndexResolver struct{}

func (htmlIndexResolver) Resolve(page []byte, base *url.URL) (DocumentLinks, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return DocumentLinks{}, fmt.Errorf("parse filing index page: %v: %w", err, apperrors.ErrParseFailure)
	}

	var links DocumentLinks
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		cells.Slice(2, cells.Length()).Each(func(_ int, cell *goquery.Selection) {
			href, ok := cell.Find("a").First().Attr("href")
			if !ok || href == "" {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			resolved := base.ResolveReference(ref)
			switch {
			case strings.HasSuffix(resolved.Path, ".htm") || strings.HasSuffix(resolved.Path, ".html"):
				if links.HTMLURL == "" {
					links.HTMLURL = resolved.String()
				}
				if links.DocumentsURL == "" {
					links.DocumentsURL = resolved.String()
				}
			case strings.HasSuffix(resolved.Path, ".txt"):
				if links.TextURL == "" {
					links.TextURL = resolved.String()
				}
				if links.DocumentsURL == "" {
					links.DocumentsURL = resolved.String()
				}
			}
		})
	})

	return links, nil
}
