package importer

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 30 * time.Second

// Scraper fetches a page and extracts its readable content.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

// DefaultScraper goes through go-readability over HTTP.
type DefaultScraper struct{}

func (DefaultScraper) Scrape(pageURL string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// Draft is what an imported page contributes to a new blog article.
type Draft struct {
	Title string
	Desc  string
	Image string
}

// Importer turns a web page into an article draft.
type Importer struct {
	scraper Scraper
	timeout time.Duration
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Importer {
	return &Importer{scraper: DefaultScraper{}, timeout: DefaultTimeout, logger: logger}
}

// Import fetches rawURL and extracts title, excerpt and lead image.
func (im *Importer) Import(rawURL string) (Draft, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Draft{}, fmt.Errorf("invalid url %q", rawURL)
	}

	logger := im.logger.With(zap.String("url", u.String()))
	logger.Info("Importing article")

	art, err := im.scraper.Scrape(u.String(), im.timeout)
	if err != nil {
		logger.Warn("Import failed", zap.Error(err))
		return Draft{}, fmt.Errorf("import %s: %w", u.Host, err)
	}

	return Draft{
		Title: strings.TrimSpace(art.Title),
		Desc:  strings.TrimSpace(art.Excerpt),
		Image: art.Image,
	}, nil
}
