package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"WineScout/internal/domain"
)

// ListMeta decorates a JSON export with the list it was cut from.
type ListMeta struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	WineCount   int       `json:"wine_count"`
}

// utf8BOM makes Excel open the CSV as UTF-8 instead of the locale
// codepage, which matters for Nordic producer names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"product_id", "name", "producer", "vintage", "category",
	"country", "region", "price", "currency", "assortment",
	"investment_score", "projected_return_1y", "projected_return_3y",
	"projected_return_5y", "projected_return_10y",
	"drinking_window_from", "drinking_window_to", "storage_time_months",
	"source",
}

// WriteCSV streams the set as comma-separated UTF-8 with a BOM. The
// header row is always present, so an empty selection still yields a
// valid file.
func WriteCSV(w io.Writer, wines []domain.Wine) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, wine := range wines {
		if err := writer.Write(csvRow(wine)); err != nil {
			return fmt.Errorf("write csv row %s: %w", wine.ProductID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRow(w domain.Wine) []string {
	vintage := ""
	if w.Vintage != nil {
		vintage = strconv.Itoa(*w.Vintage)
	}
	return []string{
		w.ProductID,
		w.Name,
		w.Producer,
		vintage,
		w.Category,
		w.Country,
		w.Region,
		formatFloat(w.Price),
		w.Currency,
		w.Assortment,
		strconv.Itoa(w.Metrics.InvestmentScore),
		formatFloat(w.Metrics.ProjectedReturn1Y),
		formatFloat(w.Metrics.ProjectedReturn3Y),
		formatFloat(w.Metrics.ProjectedReturn5Y),
		formatFloat(w.Metrics.ProjectedReturn10Y),
		strconv.Itoa(w.Metrics.DrinkingWindowFrom),
		strconv.Itoa(w.Metrics.DrinkingWindowTo),
		strconv.Itoa(w.Metrics.StorageTimeMonths),
		w.Source,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type jsonExport struct {
	List  *ListMeta  `json:"list,omitempty"`
	Wines []wineJSON `json:"wines"`
}

type wineJSON struct {
	ProductID          string  `json:"product_id"`
	Name               string  `json:"name"`
	Producer           string  `json:"producer"`
	Vintage            *int    `json:"vintage"`
	Category           string  `json:"category"`
	Country            string  `json:"country"`
	Region             string  `json:"region"`
	Price              float64 `json:"price"`
	Currency           string  `json:"currency"`
	Assortment         string  `json:"assortment"`
	InvestmentScore    int     `json:"investment_score"`
	ProjectedReturn1Y  float64 `json:"projected_return_1y"`
	ProjectedReturn3Y  float64 `json:"projected_return_3y"`
	ProjectedReturn5Y  float64 `json:"projected_return_5y"`
	ProjectedReturn10Y float64 `json:"projected_return_10y"`
	DrinkingWindowFrom int     `json:"drinking_window_from"`
	DrinkingWindowTo   int     `json:"drinking_window_to"`
	StorageTimeMonths  int     `json:"storage_time_months"`
	Source             string  `json:"source"`
}

func toWineJSON(w domain.Wine) wineJSON {
	return wineJSON{
		ProductID:          w.ProductID,
		Name:               w.Name,
		Producer:           w.Producer,
		Vintage:            w.Vintage,
		Category:           w.Category,
		Country:            w.Country,
		Region:             w.Region,
		Price:              w.Price,
		Currency:           w.Currency,
		Assortment:         w.Assortment,
		InvestmentScore:    w.Metrics.InvestmentScore,
		ProjectedReturn1Y:  w.Metrics.ProjectedReturn1Y,
		ProjectedReturn3Y:  w.Metrics.ProjectedReturn3Y,
		ProjectedReturn5Y:  w.Metrics.ProjectedReturn5Y,
		ProjectedReturn10Y: w.Metrics.ProjectedReturn10Y,
		DrinkingWindowFrom: w.Metrics.DrinkingWindowFrom,
		DrinkingWindowTo:   w.Metrics.DrinkingWindowTo,
		StorageTimeMonths:  w.Metrics.StorageTimeMonths,
		Source:             w.Source,
	}
}

// WriteJSON emits the set as a JSON document. A non-nil meta wraps the
// wines with the originating list's details.
func WriteJSON(w io.Writer, wines []domain.Wine, meta *ListMeta) error {
	records := make([]wineJSON, len(wines))
	for i, wine := range wines {
		records[i] = toWineJSON(wine)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonExport{List: meta, Wines: records})
}

// WriteXLSX emits the set as a single-sheet workbook with the same
// columns as the CSV export.
func WriteXLSX(w io.Writer, wines []domain.Wine) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Wines"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]interface{}, len(csvHeader))
	for i, name := range csvHeader {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, wine := range wines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, xlsxRow(wine)); err != nil {
			return fmt.Errorf("write xlsx row %s: %w", wine.ProductID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func xlsxRow(w domain.Wine) *[]interface{} {
	vintage := interface{}("")
	if w.Vintage != nil {
		vintage = *w.Vintage
	}
	row := []interface{}{
		w.ProductID,
		w.Name,
		w.Producer,
		vintage,
		w.Category,
		w.Country,
		w.Region,
		w.Price,
		w.Currency,
		w.Assortment,
		w.Metrics.InvestmentScore,
		w.Metrics.ProjectedReturn1Y,
		w.Metrics.ProjectedReturn3Y,
		w.Metrics.ProjectedReturn5Y,
		w.Metrics.ProjectedReturn10Y,
		w.Metrics.DrinkingWindowFrom,
		w.Metrics.DrinkingWindowTo,
		w.Metrics.StorageTimeMonths,
		w.Source,
	}
	return &row
}
