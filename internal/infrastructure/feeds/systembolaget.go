// Package feeds contains the per-source adapters: Swedish and Norwegian
// monopoly feeds, the Finnish price-list workbook, and the scraping
// service. Each adapter maps its source schema onto normalize.Candidate
// and returns normalized, unscored wines.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"WineScout/internal/config"
	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

// systembolagetProduct mirrors the community JSON feed schema.
type systembolagetProduct struct {
	ProductNumber     string  `json:"productNumber"`
	ProductNameBold   string  `json:"productNameBold"`
	ProductNameThin   string  `json:"productNameThin"`
	ProducerName      string  `json:"producerName"`
	CategoryLevel1    string  `json:"categoryLevel1"`
	CategoryLevel2    string  `json:"categoryLevel2"`
	CategoryLevel3    string  `json:"categoryLevel3"`
	Country           string  `json:"country"`
	OriginLevel1      string  `json:"originLevel1"`
	OriginLevel2      string  `json:"originLevel2"`
	Vintage           string  `json:"vintage"`
	AlcoholPercentage float64 `json:"alcoholPercentage"`
	Price             float64 `json:"price"`
	Usage             string  `json:"usage"`
	Taste             string  `json:"taste"`
	AssortmentText    string  `json:"assortmentText"`
	ProductLaunchDate string  `json:"productLaunchDate"`
	ImageURL          string  `json:"imageUrl"`
}

// SystembolagetAdapter reads the full Swedish product mirror and serves
// contiguous batch windows out of it for client-driven chunking.
type SystembolagetAdapter struct {
	client   *http.Client
	cfg      config.SourceConfig
	keywords []string
	logger   *slog.Logger
}

var _ feed.Adapter = (*SystembolagetAdapter)(nil)

// NewSystembolagetAdapter wires an HTTP client; a nil client gets a
// 60s timeout suited to the large mirror payload.
func NewSystembolagetAdapter(client *http.Client, cfg config.SourceConfig, keywords []string, logger *slog.Logger) *SystembolagetAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &SystembolagetAdapter{client: client, cfg: cfg, keywords: keywords, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *SystembolagetAdapter) Name() string {
	return "systembolaget"
}

// Fetch downloads the mirror, slices the requested batch window and
// normalizes the records inside it.
func (a *SystembolagetAdapter) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL, nil)
	if err != nil {
		return feed.Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "WineScout/1.0")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return feed.Result{}, fmt.Errorf("request systembolaget feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return feed.Result{}, fmt.Errorf("systembolaget feed returned %s", resp.Status)
	}

	var products []systembolagetProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return feed.Result{}, fmt.Errorf("decode systembolaget feed: %w", err)
	}

	start, end, hasMore, nextBatch := feed.Window(len(products), req.BatchNumber, req.BatchSize)

	now := time.Now()
	wines := make([]domain.Wine, 0, end-start)
	for _, p := range products[start:end] {
		candidate := normalize.Candidate{
			ProductNumber:  p.ProductNumber,
			NameCandidates: []string{p.ProductNameBold, p.ProductNameThin},
			Producer:       p.ProducerName,
			PriceText:      strconv.FormatFloat(p.Price, 'f', -1, 64),
			AlcoholText:    strconv.FormatFloat(p.AlcoholPercentage, 'f', -1, 64),
			CategoryFields: []string{p.CategoryLevel2, p.CategoryLevel1, p.CategoryLevel3},
			CountryFields:  []string{p.Country},
			RegionFields:   []string{p.OriginLevel2, p.OriginLevel1},
			VintageText:    p.Vintage,
			Description:    normalize.FirstNonEmpty(p.Taste, p.Usage),
			ImageURL:       p.ImageURL,
			Assortment:     p.AssortmentText,
			SalesStartText: p.ProductLaunchDate,
			Currency:       a.cfg.Currency,
		}

		wine, ok := normalize.Build(a.Name(), a.cfg.Prefix, candidate, a.keywords, now)
		if !ok {
			continue
		}
		wines = append(wines, wine)
	}

	a.debug("systembolaget batch normalized",
		"total", len(products), "window", end-start, "accepted", len(wines))

	return feed.Result{
		Wines:         wines,
		TotalProducts: len(products),
		HasMore:       hasMore,
		NextBatch:     nextBatch,
	}, nil
}

func (a *SystembolagetAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
