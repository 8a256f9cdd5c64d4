package domain

import "time"

// Wine is the central catalog entity, one row per source product.
// The same physical wine offered by two sources yields two rows; there is
// no cross-source identity resolution.
type Wine struct {
	ID            int64
	ProductID     string // source-prefixed, unique, e.g. "ALKO-12345"
	Name          string
	Producer      string
	Category      string
	Country       string
	Region        string
	Vintage       *int
	AlcoholPct    float64
	Price         float64
	Currency      string
	Description   string
	ImageURL      string
	Assortment    string
	SalesStart    *time.Time
	Source        string

	Metrics InvestmentMetrics

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvestmentMetrics are derived at ingestion time and never recomputed.
type InvestmentMetrics struct {
	InvestmentScore    int // clamped to [1,10]
	ProjectedReturn1Y  float64
	ProjectedReturn3Y  float64
	ProjectedReturn5Y  float64
	ProjectedReturn10Y float64
	StorageTimeMonths  int
	DrinkingWindowFrom int
	DrinkingWindowTo   int
	ValueAppreciation  float64
}

// HasScore reports whether metrics were populated during ingestion.
func (m InvestmentMetrics) HasScore() bool {
	return m.InvestmentScore > 0
}
