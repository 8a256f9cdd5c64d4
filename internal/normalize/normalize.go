// Package normalize maps heterogeneous source fields onto the single
// Wine shape. Each adapter builds a Candidate from its own schema; Build
// applies the shared selection, coercion and validation rules.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"WineScout/internal/domain"
)

// Candidate is a raw product flattened into prioritized field lists.
// Candidate slices are ordered: the first non-empty value wins.
type Candidate struct {
	ProductNumber  string // source-local id, without prefix
	NameCandidates []string
	Producer       string
	PriceText      string
	AlcoholText    string
	CategoryFields []string
	CountryFields  []string
	RegionFields   []string
	VintageText    string
	Description    string
	ImageURL       string
	Assortment     string
	SalesStartText string
	Currency       string
}

const unknownPlaceholder = "Unknown"

// DefaultKeywords returns the per-source wine-category keyword tables.
// Matching is a permissive case-insensitive substring check, not a
// controlled vocabulary; the tables live here so they can be tested
// independently of ingestion.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"systembolaget": {"vin", "champagne", "mousserande"},
		"vinmonopolet":  {"vin", "rødvin", "hvitvin", "musserende", "champagne"},
		"alko":          {"viini", "viinit", "kuohuviini", "samppanja"},
		"scraper":       {"wine", "vin", "viini"},
	}
}

// MatchesWineCategory reports whether any keyword occurs in the category
// text, case-insensitively.
func MatchesWineCategory(keywords []string, category string) bool {
	lowered := strings.ToLower(category)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FirstNonEmpty returns the first candidate with visible content.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

var numberCleaner = regexp.MustCompile(`[^0-9,.\-]`)

// ParseNumber coerces locale-formatted numeric strings: comma decimal
// separators and space/period thousands separators are rewritten before
// parsing. Returns false when nothing parseable remains.
func ParseNumber(raw string) (float64, bool) {
	cleaned := numberCleaner.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		// "1.234,56": periods are thousands separators.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

var vintageExpr = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseVintage extracts a plausible vintage year, nil when absent.
func ParseVintage(raw string, now time.Time) *int {
	match := vintageExpr.FindString(raw)
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil || year > now.Year()+1 {
		return nil
	}
	return &year
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "2006-01-02T15:04:05Z07:00"}

// ParseDate tries the date layouts the sources are known to emit.
func ParseDate(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return &parsed
		}
	}
	return nil
}

// Build converts a Candidate to a Wine. ok is false when the record is
// discarded: no usable name, non-positive price, or a category that does
// not match the source's wine keywords.
func Build(source, prefix string, c Candidate, keywords []string, now time.Time) (domain.Wine, bool) {
	name := FirstNonEmpty(c.NameCandidates...)
	if name == "" {
		return domain.Wine{}, false
	}

	price, ok := ParseNumber(c.PriceText)
	if !ok || price <= 0 {
		return domain.Wine{}, false
	}

	category := FirstNonEmpty(c.CategoryFields...)
	if !MatchesWineCategory(keywords, category) {
		return domain.Wine{}, false
	}

	alcohol, _ := ParseNumber(c.AlcoholText)

	producer := c.Producer
	if strings.TrimSpace(producer) == "" {
		producer = unknownPlaceholder
	}

	wine := domain.Wine{
		ProductID:   prefix + strings.TrimSpace(c.ProductNumber),
		Name:        name,
		Producer:    producer,
		Category:    category,
		Country:     FirstNonEmpty(c.CountryFields...),
		Region:      FirstNonEmpty(c.RegionFields...),
		Vintage:     ParseVintage(c.VintageText, now),
		AlcoholPct:  alcohol,
		Price:       price,
		Currency:    c.Currency,
		Description: strings.TrimSpace(c.Description),
		ImageURL:    strings.TrimSpace(c.ImageURL),
		Assortment:  strings.TrimSpace(c.Assortment),
		SalesStart:  ParseDate(c.SalesStartText),
		Source:      source,
	}
	return wine, true
}
