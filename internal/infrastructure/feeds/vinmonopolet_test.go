package feeds

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"WineScout/internal/config"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

func encodeLatin1(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, charmap.ISO8859_1.NewEncoder())
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("encode latin-1: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return buf.Bytes()
}

func TestVinmonopoletFetch(t *testing.T) {
	t.Parallel()

	csvBody := "Varenummer;Varenavn;Pris;Varetype;Produktutvalg;Land;Distrikt;Underdistrikt;Argang;Produsent;Alkohol\n" +
		"67890;Château Pétrus;4 500,00;Rødvin;Bestillingsutvalget;Frankrike;Bordeaux;Pomerol;2016;Pétrus;14,00\n" +
		"67891;Akevitt Spesial;350,00;Brennevin;Basisutvalget;Norge;;;;Arcus;41,50\n"

	payload := encodeLatin1(t, csvBody)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=ISO-8859-1")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cfg := config.SourceConfig{Name: "vinmonopolet", URL: server.URL, Currency: "NOK", Prefix: "VM"}
	adapter := NewVinmonopoletAdapter(server.Client(), cfg,
		normalize.DefaultKeywords()["vinmonopolet"], nil)

	result, err := adapter.Fetch(context.Background(), feed.Request{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if result.TotalProducts != 2 {
		t.Fatalf("expected 2 total products, got %d", result.TotalProducts)
	}
	if len(result.Wines) != 1 {
		t.Fatalf("expected 1 accepted wine, got %d", len(result.Wines))
	}

	wine := result.Wines[0]
	if wine.ProductID != "VM67890" {
		t.Fatalf("unexpected product id: %s", wine.ProductID)
	}
	// Latin-1 round trip must preserve diacritics.
	if wine.Name != "Château Pétrus" {
		t.Fatalf("unexpected name: %q", wine.Name)
	}
	if wine.Price != 4500 {
		t.Fatalf("unexpected price: %v", wine.Price)
	}
	if wine.Region != "Bordeaux" {
		t.Fatalf("unexpected region: %s", wine.Region)
	}
	if wine.AlcoholPct != 14 {
		t.Fatalf("unexpected alcohol: %v", wine.AlcoholPct)
	}
}
