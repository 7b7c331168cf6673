// Package listing discovers bulletin documents on a listing page and
// downloads them.
package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/covidmx/internal/fetch"
	"github.com/hyperifyio/covidmx/internal/fileutil"
)

// Defaults for the federal health ministry site.
const (
	DefaultBaseURL   = "https://www.gob.mx"
	DefaultContainer = "div.clearfix"
)

// ErrContainerNotFound means the listing page lacks the content container.
var ErrContainerNotFound = errors.New("content container not found")

// RetrievalError reports a failure to fetch the listing or a document.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieve %s: %v", e.URL, e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// Fetcher discovers and downloads documents. Every request is made once.
type Fetcher struct {
	Client *fetch.Client
	// BaseURL resolves relative links. Empty means DefaultBaseURL.
	BaseURL string
	// Container selects the element holding the document links. Empty means
	// DefaultContainer.
	Container string
}

func (f *Fetcher) base() string {
	if f.BaseURL == "" {
		return DefaultBaseURL
	}
	return f.BaseURL
}

func (f *Fetcher) container() string {
	if f.Container == "" {
		return DefaultContainer
	}
	return f.Container
}

// Discover returns the absolute targets of every link inside the first
// container element of the listing page, in document order.
func (f *Fetcher) Discover(ctx context.Context, listingURL string) ([]string, error) {
	body, ct, err := f.Client.Get(ctx, listingURL)
	if err != nil {
		return nil, &RetrievalError{URL: listingURL, Err: err}
	}
	r, err := charset.NewReader(bytes.NewReader(body), ct)
	if err != nil {
		return nil, &RetrievalError{URL: listingURL, Err: fmt.Errorf("decode charset: %w", err)}
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &RetrievalError{URL: listingURL, Err: fmt.Errorf("parse html: %w", err)}
	}
	box := doc.Find(f.container()).First()
	if box.Length() == 0 {
		return nil, &RetrievalError{URL: listingURL, Err: ErrContainerNotFound}
	}
	base, err := url.Parse(f.base())
	if err != nil {
		return nil, &RetrievalError{URL: listingURL, Err: fmt.Errorf("base url: %w", err)}
	}
	var links []string
	box.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			log.Warn().Str("href", href).Err(err).Msg("skipping malformed link")
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	log.Info().Str("url", listingURL).Int("links", len(links)).Msg("listing scanned")
	return links, nil
}

// FileName returns the last path segment of a document URL.
func FileName(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("no file name in %q", link)
	}
	return name, nil
}

// Download writes each link into outDir under its original file name and
// returns the written paths. It stops at the first failure.
func (f *Fetcher) Download(ctx context.Context, links []string, outDir string) ([]string, error) {
	client := f.Client.WithAccept(fetch.AnyContentType)
	paths := make([]string, 0, len(links))
	for _, link := range links {
		name, err := FileName(link)
		if err != nil {
			return paths, &RetrievalError{URL: link, Err: err}
		}
		body, _, err := client.Get(ctx, link)
		if err != nil {
			return paths, &RetrievalError{URL: link, Err: err}
		}
		dst := filepath.Join(outDir, name)
		if err := fileutil.WriteAtomicBytes(dst, body); err != nil {
			return paths, fmt.Errorf("save %s: %w", name, err)
		}
		log.Info().Str("url", link).Str("out", dst).Int("bytes", len(body)).Msg("downloaded")
		paths = append(paths, dst)
	}
	return paths, nil
}

// Run discovers the documents on listingURL and downloads them into outDir.
func (f *Fetcher) Run(ctx context.Context, listingURL, outDir string) ([]string, error) {
	links, err := f.Discover(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, links, outDir)
}
