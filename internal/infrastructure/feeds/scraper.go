package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"WineScout/internal/config"
	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

// ScraperAdapter pulls rendered product listings from the external
// scraping service and extracts wines with CSS selectors. The service
// takes the target page as a "url" query parameter and returns HTML.
type ScraperAdapter struct {
	client   *http.Client
	cfg      config.SourceConfig
	keywords []string
	logger   *slog.Logger
}

var _ feed.Adapter = (*ScraperAdapter)(nil)

// NewScraperAdapter wires an HTTP client with a default timeout.
func NewScraperAdapter(client *http.Client, cfg config.SourceConfig, keywords []string, logger *slog.Logger) *ScraperAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ScraperAdapter{client: client, cfg: cfg, keywords: keywords, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ScraperAdapter) Name() string {
	return "scraper"
}

// Fetch renders the configured target page and parses product cards.
func (a *ScraperAdapter) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	pageURL, err := a.buildServiceURL(req.Options)
	if err != nil {
		return feed.Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return feed.Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "WineScout/1.0")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return feed.Result{}, fmt.Errorf("request scraping service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return feed.Result{}, fmt.Errorf("scraping service returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return feed.Result{}, fmt.Errorf("parse scraped page: %w", err)
	}

	now := time.Now()
	var wines []domain.Wine
	total := 0

	doc.Find(".product-card").Each(func(i int, card *goquery.Selection) {
		total++

		productID := strings.TrimSpace(card.AttrOr("data-product-id", ""))
		if productID == "" {
			productID = fmt.Sprintf("page%d", total)
		}

		img := card.Find("img").First().AttrOr("src", "")

		candidate := normalize.Candidate{
			ProductNumber:  productID,
			NameCandidates: []string{text(card, ".product-name"), text(card, "h3")},
			Producer:       text(card, ".producer"),
			PriceText:      text(card, ".price"),
			AlcoholText:    text(card, ".alcohol"),
			CategoryFields: []string{text(card, ".category"), card.AttrOr("data-category", "")},
			CountryFields:  []string{text(card, ".country")},
			RegionFields:   []string{text(card, ".region")},
			VintageText:    normalize.FirstNonEmpty(text(card, ".vintage"), text(card, ".product-name")),
			Description:    text(card, ".description"),
			ImageURL:       img,
			Currency:       a.cfg.Currency,
		}

		wine, ok := normalize.Build(a.Name(), a.cfg.Prefix, candidate, a.keywords, now)
		if !ok {
			return
		}
		wines = append(wines, wine)
	})

	a.debug("scraped page normalized", "cards", total, "accepted", len(wines))

	return feed.Result{Wines: wines, TotalProducts: total}, nil
}

func (a *ScraperAdapter) buildServiceURL(options map[string]string) (string, error) {
	parsed, err := url.Parse(a.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid scraper url %s: %w", a.cfg.URL, err)
	}

	query := parsed.Query()
	if target := options["target"]; target != "" {
		query.Set("url", target)
	} else if target := a.cfg.Options["target"]; target != "" {
		query.Set("url", target)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func (a *ScraperAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
