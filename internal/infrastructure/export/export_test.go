package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"WineScout/internal/domain"
)

func sampleWines() []domain.Wine {
	vintage := 2016
	return []domain.Wine{
		{
			ProductID: "SB-101",
			Name:      `Château "La Côte"`,
			Producer:  "Médoc Frères",
			Vintage:   &vintage,
			Category:  "Rött vin",
			Country:   "France",
			Price:     1299.5,
			Currency:  "SEK",
			Source:    "systembolaget",
			Metrics: domain.InvestmentMetrics{
				InvestmentScore:   8,
				ProjectedReturn5Y: 32.5,
			},
		},
		{
			ProductID: "VM67890",
			Name:      "Hverdagsvin",
			Price:     120,
			Currency:  "NOK",
			Source:    "vinmonopolet",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleWines()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("csv must start with the UTF-8 BOM")
	}

	reader := csv.NewReader(bytes.NewReader(raw[3:]))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse produced csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "product_id" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != `Château "La Côte"` {
		t.Fatalf("embedded quotes mangled: %q", rows[1][1])
	}
	if rows[1][3] != "2016" || rows[2][3] != "" {
		t.Fatalf("vintage column wrong: %q / %q", rows[1][3], rows[2][3])
	}
	if rows[1][7] != "1299.5" {
		t.Fatalf("price column wrong: %q", rows[1][7])
	}
}

func TestWriteCSVEmptySet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	content := strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")
	if !strings.HasPrefix(content, "product_id,") {
		t.Fatalf("empty export must still carry the header, got %q", content)
	}
	if strings.Count(content, "\n") != 1 {
		t.Fatalf("empty export must hold exactly the header line, got %q", content)
	}
}

func TestWriteJSONWithListMeta(t *testing.T) {
	t.Parallel()

	meta := &ListMeta{
		Name:      "Cellar candidates",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		WineCount: 2,
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleWines(), meta); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded struct {
		List  *ListMeta `json:"list"`
		Wines []struct {
			ProductID string `json:"product_id"`
		} `json:"wines"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("parse produced json: %v", err)
	}
	if decoded.List == nil || decoded.List.Name != "Cellar candidates" {
		t.Fatalf("list metadata missing: %+v", decoded.List)
	}
	if len(decoded.Wines) != 2 || decoded.Wines[0].ProductID != "SB-101" {
		t.Fatalf("wines payload wrong: %+v", decoded.Wines)
	}

	// Catalog export carries no wrapper.
	buf.Reset()
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.Contains(buf.String(), `"list"`) {
		t.Fatalf("nil meta must omit the list key: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"wines": []`) {
		t.Fatalf("empty export must hold an empty array: %s", buf.String())
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleWines()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	workbook, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("Wines")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "product_id" || rows[1][0] != "SB-101" {
		t.Fatalf("workbook content wrong: %v", rows[:2])
	}
}
