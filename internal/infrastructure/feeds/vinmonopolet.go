package feeds

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"WineScout/internal/config"
	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

// VinmonopoletAdapter reads the Norwegian monopoly's product CSV export:
// semicolon-separated, ISO-8859-1 encoded.
type VinmonopoletAdapter struct {
	client   *http.Client
	cfg      config.SourceConfig
	keywords []string
	logger   *slog.Logger
}

var _ feed.Adapter = (*VinmonopoletAdapter)(nil)

// NewVinmonopoletAdapter wires an HTTP client with a default timeout.
func NewVinmonopoletAdapter(client *http.Client, cfg config.SourceConfig, keywords []string, logger *slog.Logger) *VinmonopoletAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &VinmonopoletAdapter{client: client, cfg: cfg, keywords: keywords, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *VinmonopoletAdapter) Name() string {
	return "vinmonopolet"
}

// Fetch downloads and parses the whole CSV feed.
func (a *VinmonopoletAdapter) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL, nil)
	if err != nil {
		return feed.Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "WineScout/1.0")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return feed.Result{}, fmt.Errorf("request vinmonopolet feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return feed.Result{}, fmt.Errorf("vinmonopolet feed returned %s", resp.Status)
	}

	wines, total, err := a.parseCSV(resp.Body)
	if err != nil {
		return feed.Result{}, err
	}

	a.debug("vinmonopolet feed normalized", "total", total, "accepted", len(wines))

	return feed.Result{Wines: wines, TotalProducts: total}, nil
}

func (a *VinmonopoletAdapter) parseCSV(r io.Reader) ([]domain.Wine, int, error) {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	reader := csv.NewReader(decoded)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read vinmonopolet csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("vinmonopolet csv is empty")
	}

	// First row is the header; map column names to indexes so feed
	// column reordering does not break the adapter.
	index := map[string]int{}
	for i, col := range rows[0] {
		index[col] = i
	}

	cell := func(row []string, name string) string {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	now := time.Now()
	wines := make([]domain.Wine, 0, len(rows)-1)
	for _, row := range rows[1:] {
		candidate := normalize.Candidate{
			ProductNumber:  cell(row, "Varenummer"),
			NameCandidates: []string{cell(row, "Varenavn")},
			Producer:       cell(row, "Produsent"),
			PriceText:      cell(row, "Pris"),
			AlcoholText:    cell(row, "Alkohol"),
			CategoryFields: []string{cell(row, "Varetype"), cell(row, "Butikkategori")},
			CountryFields:  []string{cell(row, "Land")},
			RegionFields:   []string{cell(row, "Distrikt"), cell(row, "Underdistrikt")},
			VintageText:    cell(row, "Argang"),
			Description:    normalize.FirstNonEmpty(cell(row, "Smak"), cell(row, "Lukt")),
			Assortment:     cell(row, "Produktutvalg"),
			SalesStartText: cell(row, "Lanseringsdato"),
			Currency:       a.cfg.Currency,
		}

		wine, ok := normalize.Build(a.Name(), a.cfg.Prefix, candidate, a.keywords, now)
		if !ok {
			continue
		}
		wines = append(wines, wine)
	}

	return wines, len(rows) - 1, nil
}

func (a *VinmonopoletAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
