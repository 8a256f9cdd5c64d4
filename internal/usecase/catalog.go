package usecase

import (
	"context"
	"sort"
	"strings"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

// PageSize is the fixed catalog page length.
const PageSize = 100

// SuggestionCount caps the curated suggestions view.
const SuggestionCount = 10

// CatalogPage is one page of a filtered view plus its pagination frame.
type CatalogPage struct {
	Wines     []domain.Wine
	Total     int
	Page      int
	PageCount int
	PageSize  int
}

// Catalog serves filtered, sorted, paginated views over the wine table.
// The full set is loaded per request and narrowed in memory; the
// catalog is small enough that this beats maintaining query plumbing
// for every filter combination.
type Catalog struct {
	repository ports.WineRepository
	limits     Limits
}

// NewCatalog wires the catalog read side.
func NewCatalog(repository ports.WineRepository, limits Limits) *Catalog {
	return &Catalog{repository: repository, limits: limits}
}

// Limits exposes the slider maxima the catalog was built with.
func (c *Catalog) Limits() Limits {
	return c.limits
}

// Browse applies the full state: filter, sort, then paginate. When the
// state asks for suggestions the filters are ignored and the curated
// top list is returned instead.
func (c *Catalog) Browse(ctx context.Context, state FilterState) (CatalogPage, error) {
	wines, err := c.repository.ListWines(ctx)
	if err != nil {
		return CatalogPage{}, err
	}

	if state.Suggestions {
		picks := SuggestWines(wines)
		return CatalogPage{
			Wines:     picks,
			Total:     len(picks),
			Page:      1,
			PageCount: 1,
			PageSize:  PageSize,
		}, nil
	}

	matched := FilterWines(wines, state, c.limits)
	SortWines(matched, state.SortField, state.SortDesc)
	return paginate(matched, state.Page), nil
}

// Export returns the complete filtered set without pagination, for the
// download endpoints.
func (c *Catalog) Export(ctx context.Context, state FilterState) ([]domain.Wine, error) {
	wines, err := c.repository.ListWines(ctx)
	if err != nil {
		return nil, err
	}
	if state.Suggestions {
		return SuggestWines(wines), nil
	}
	matched := FilterWines(wines, state, c.limits)
	SortWines(matched, state.SortField, state.SortDesc)
	return matched, nil
}

// WinesByProductID resolves a list's members against the catalog,
// preserving the list order and skipping ids no longer present.
func (c *Catalog) WinesByProductID(ctx context.Context, productIDs []string) ([]domain.Wine, error) {
	wines, err := c.repository.ListWines(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Wine, len(wines))
	for _, wine := range wines {
		byID[wine.ProductID] = wine
	}

	resolved := make([]domain.Wine, 0, len(productIDs))
	for _, id := range productIDs {
		if wine, ok := byID[id]; ok {
			resolved = append(resolved, wine)
		}
	}
	return resolved, nil
}

// FilterWines narrows the set to records matching every active filter.
// Filters are conjunctive across dimensions and disjunctive inside a
// multi-select, so the result is independent of application order.
func FilterWines(wines []domain.Wine, state FilterState, limits Limits) []domain.Wine {
	matched := make([]domain.Wine, 0, len(wines))
	for _, wine := range wines {
		if matchesState(wine, state, limits) {
			matched = append(matched, wine)
		}
	}
	return matched
}

func matchesState(wine domain.Wine, state FilterState, limits Limits) bool {
	if state.Search != "" && !matchesSearch(wine, state.Search) {
		return false
	}
	if !matchesAny(wine.Category, state.Categories) {
		return false
	}
	if !matchesAny(wine.Country, state.Countries) {
		return false
	}
	if !matchesAny(wine.Assortment, state.Assortments) {
		return false
	}
	if len(state.Vintages) > 0 {
		if wine.Vintage == nil || !containsInt(state.Vintages, *wine.Vintage) {
			return false
		}
	}

	if !state.PriceRange.Contains(wine.Price, limits.Price) {
		return false
	}
	if !state.StorageRange.Contains(float64(wine.Metrics.StorageTimeMonths), limits.Storage) {
		return false
	}
	if !state.Return1Y.Contains(wine.Metrics.ProjectedReturn1Y, limits.Return1Y) {
		return false
	}
	if !state.Return3Y.Contains(wine.Metrics.ProjectedReturn3Y, limits.Return3Y) {
		return false
	}
	if !state.Return5Y.Contains(wine.Metrics.ProjectedReturn5Y, limits.Return5Y) {
		return false
	}
	if !state.Return10Y.Contains(wine.Metrics.ProjectedReturn10Y, limits.Return10Y) {
		return false
	}

	if state.WindowFrom != 0 && wine.Metrics.DrinkingWindowTo < state.WindowFrom {
		return false
	}
	if state.WindowTo != 0 && wine.Metrics.DrinkingWindowFrom > state.WindowTo {
		return false
	}

	return true
}

func matchesSearch(wine domain.Wine, query string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	for _, hay := range []string{wine.Name, wine.Producer, wine.Country, wine.Region} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func matchesAny(value string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, candidate := range selected {
		if strings.EqualFold(value, candidate) {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// SortWines orders the set in place. An empty field keeps the incoming
// order. Ties keep their relative order so paging stays stable.
func SortWines(wines []domain.Wine, field string, desc bool) {
	less := lessFunc(field)
	if less == nil {
		return
	}
	sort.SliceStable(wines, func(i, j int) bool {
		if desc {
			return less(wines[j], wines[i])
		}
		return less(wines[i], wines[j])
	})
}

func lessFunc(field string) func(a, b domain.Wine) bool {
	switch field {
	case "name":
		return func(a, b domain.Wine) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case "price":
		return func(a, b domain.Wine) bool { return a.Price < b.Price }
	case "vintage":
		return func(a, b domain.Wine) bool {
			return vintageOrZero(a) < vintageOrZero(b)
		}
	case "score":
		return func(a, b domain.Wine) bool {
			return a.Metrics.InvestmentScore < b.Metrics.InvestmentScore
		}
	case "return5y":
		return func(a, b domain.Wine) bool {
			return a.Metrics.ProjectedReturn5Y < b.Metrics.ProjectedReturn5Y
		}
	case "country":
		return func(a, b domain.Wine) bool {
			return strings.ToLower(a.Country) < strings.ToLower(b.Country)
		}
	}
	return nil
}

func vintageOrZero(w domain.Wine) int {
	if w.Vintage == nil {
		return 0
	}
	return *w.Vintage
}

// SuggestWines ranks scored records by investment potential and keeps
// the top picks. Records missing a score or a 5-year projection never
// qualify.
func SuggestWines(wines []domain.Wine) []domain.Wine {
	eligible := make([]domain.Wine, 0, len(wines))
	for _, wine := range wines {
		if wine.Metrics.HasScore() && wine.Metrics.ProjectedReturn5Y > 0 {
			eligible = append(eligible, wine)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return suggestionRank(eligible[i]) > suggestionRank(eligible[j])
	})
	if len(eligible) > SuggestionCount {
		eligible = eligible[:SuggestionCount]
	}
	return eligible
}

func suggestionRank(w domain.Wine) float64 {
	return float64(w.Metrics.InvestmentScore)*10 + w.Metrics.ProjectedReturn5Y
}

func paginate(wines []domain.Wine, page int) CatalogPage {
	if page < 1 {
		page = 1
	}
	total := len(wines)
	pageCount := (total + PageSize - 1) / PageSize
	if pageCount == 0 {
		pageCount = 1
	}

	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return CatalogPage{
		Wines:     wines[start:end],
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		PageSize:  PageSize,
	}
}
