package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"WineScout/internal/config"
	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

// AlkoAdapter downloads the Finnish monopoly price list, published as an
// XLSX workbook, and normalizes its rows.
type AlkoAdapter struct {
	client   *http.Client
	cfg      config.SourceConfig
	keywords []string
	logger   *slog.Logger
}

var _ feed.Adapter = (*AlkoAdapter)(nil)

// NewAlkoAdapter wires an HTTP client with a default timeout.
func NewAlkoAdapter(client *http.Client, cfg config.SourceConfig, keywords []string, logger *slog.Logger) *AlkoAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &AlkoAdapter{client: client, cfg: cfg, keywords: keywords, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *AlkoAdapter) Name() string {
	return "alko"
}

// Fetch downloads the workbook and parses the price-list sheet.
func (a *AlkoAdapter) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL, nil)
	if err != nil {
		return feed.Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "WineScout/1.0")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return feed.Result{}, fmt.Errorf("request alko price list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return feed.Result{}, fmt.Errorf("alko price list returned %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return feed.Result{}, fmt.Errorf("read alko price list: %w", err)
	}

	wines, total, err := a.parseWorkbook(bytes.NewReader(payload))
	if err != nil {
		return feed.Result{}, err
	}

	a.debug("alko price list normalized", "total", total, "accepted", len(wines))

	return feed.Result{Wines: wines, TotalProducts: total}, nil
}

func (a *AlkoAdapter) parseWorkbook(r io.Reader) ([]domain.Wine, int, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open alko workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("alko workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read alko sheet: %w", err)
	}

	// The sheet carries a few title rows before the real header; locate
	// the header by its "Numero" column.
	headerIdx := -1
	index := map[string]int{}
	for i, row := range rows {
		for _, col := range row {
			if strings.EqualFold(strings.TrimSpace(col), "Numero") {
				headerIdx = i
				for k, name := range row {
					index[strings.TrimSpace(name)] = k
				}
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, 0, fmt.Errorf("alko sheet header not found")
	}

	cell := func(row []string, name string) string {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	now := time.Now()
	data := rows[headerIdx+1:]
	wines := make([]domain.Wine, 0, len(data))
	for _, row := range data {
		candidate := normalize.Candidate{
			ProductNumber:  cell(row, "Numero"),
			NameCandidates: []string{cell(row, "Nimi")},
			Producer:       cell(row, "Valmistaja"),
			PriceText:      cell(row, "Hinta"),
			AlcoholText:    cell(row, "Alkoholi-%"),
			CategoryFields: []string{cell(row, "Tyyppi")},
			CountryFields:  []string{cell(row, "Valmistusmaa")},
			RegionFields:   []string{cell(row, "Alue")},
			VintageText:    cell(row, "Vuosikerta"),
			Description:    cell(row, "Luonnehdinta"),
			Assortment:     cell(row, "Valikoima"),
			Currency:       a.cfg.Currency,
		}

		wine, ok := normalize.Build(a.Name(), a.cfg.Prefix, candidate, a.keywords, now)
		if !ok {
			continue
		}
		wines = append(wines, wine)
	}

	return wines, len(data), nil
}

func (a *AlkoAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
