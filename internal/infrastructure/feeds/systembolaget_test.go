package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"WineScout/internal/config"
	"WineScout/internal/feed"
	"WineScout/internal/normalize"
)

func sbConfig(url string) config.SourceConfig {
	return config.SourceConfig{
		Name: "systembolaget", Adapter: "systembolaget",
		URL: url, Currency: "SEK", Prefix: "SB-", BatchSize: 500,
	}
}

func TestSystembolagetFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
		  {"productNumber":"101","productNameBold":"Barolo Riserva","producerName":"Conterno",
		   "categoryLevel1":"Vin","categoryLevel2":"Rött vin","country":"Italien",
		   "originLevel1":"Piemonte","vintage":"2018","alcoholPercentage":14.5,"price":899,
		   "assortmentText":"Ordinarie sortiment"},
		  {"productNumber":"102","productNameBold":"","productNameThin":"","price":400,
		   "categoryLevel1":"Vin"},
		  {"productNumber":"103","productNameBold":"Whisky Cask","price":650,
		   "categoryLevel1":"Sprit","categoryLevel2":"Whisky"}
		]`))
	}))
	defer server.Close()

	adapter := NewSystembolagetAdapter(server.Client(), sbConfig(server.URL),
		normalize.DefaultKeywords()["systembolaget"], nil)

	result, err := adapter.Fetch(context.Background(), feed.Request{SourceName: "systembolaget"})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if result.TotalProducts != 3 {
		t.Fatalf("expected 3 total products, got %d", result.TotalProducts)
	}
	// Nameless record and the spirit are dropped.
	if len(result.Wines) != 1 {
		t.Fatalf("expected 1 accepted wine, got %d", len(result.Wines))
	}

	wine := result.Wines[0]
	if wine.ProductID != "SB-101" {
		t.Fatalf("unexpected product id: %s", wine.ProductID)
	}
	if wine.Region != "Piemonte" {
		t.Fatalf("unexpected region: %s", wine.Region)
	}
	if wine.Vintage == nil || *wine.Vintage != 2018 {
		t.Fatalf("unexpected vintage: %v", wine.Vintage)
	}
	if wine.Currency != "SEK" {
		t.Fatalf("unexpected currency: %s", wine.Currency)
	}
}

func TestSystembolagetFetchAbortsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewSystembolagetAdapter(server.Client(), sbConfig(server.URL),
		normalize.DefaultKeywords()["systembolaget"], nil)

	if _, err := adapter.Fetch(context.Background(), feed.Request{}); err == nil {
		t.Fatal("expected fetch error on non-2xx status")
	}
}

func TestSystembolagetBatchWindow(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
		  {"productNumber":"1","productNameBold":"Vin Ett","price":100,"categoryLevel1":"Rött vin"},
		  {"productNumber":"2","productNameBold":"Vin Två","price":100,"categoryLevel1":"Rött vin"},
		  {"productNumber":"3","productNameBold":"Vin Tre","price":100,"categoryLevel1":"Rött vin"}
		]`))
	}))
	defer server.Close()

	adapter := NewSystembolagetAdapter(server.Client(), sbConfig(server.URL),
		normalize.DefaultKeywords()["systembolaget"], nil)

	result, err := adapter.Fetch(context.Background(), feed.Request{BatchNumber: 1, BatchSize: 2})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Wines) != 2 || !result.HasMore || result.NextBatch != 2 {
		t.Fatalf("batch 1: got %d wines, hasMore=%v, next=%d", len(result.Wines), result.HasMore, result.NextBatch)
	}

	result, err = adapter.Fetch(context.Background(), feed.Request{BatchNumber: 2, BatchSize: 2})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Wines) != 1 || result.HasMore || result.NextBatch != 0 {
		t.Fatalf("batch 2: got %d wines, hasMore=%v, next=%d", len(result.Wines), result.HasMore, result.NextBatch)
	}
}
