package usecase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Range is a numeric filter bound. By convention a Max that reaches the
// configured slider limit means "no upper bound"; see Limits.
type Range struct {
	Min float64
	Max float64
}

// Limits holds the slider maxima. A range whose Max equals its limit is
// treated as open-ended upward, so records above the limit still match.
type Limits struct {
	Price     float64
	Storage   float64 // months
	Return1Y  float64
	Return3Y  float64
	Return5Y  float64
	Return10Y float64
}

// DefaultLimits mirrors the browsing UI slider configuration.
var DefaultLimits = Limits{
	Price:     75000,
	Storage:   240,
	Return1Y:  20,
	Return3Y:  40,
	Return5Y:  60,
	Return10Y: 120,
}

// FilterState is the explicit, serializable catalog view state. It is
// passed through read/update operations and round-trips to a query
// string for shareable, bookmarkable views.
type FilterState struct {
	Search      string
	Categories  []string
	Countries   []string
	Vintages    []int
	Assortments []string

	PriceRange   Range
	StorageRange Range
	Return1Y     Range
	Return3Y     Range
	Return5Y     Range
	Return10Y    Range

	WindowFrom int
	WindowTo   int

	SortField string // empty means unsorted
	SortDesc  bool
	Page      int // 1-indexed

	Suggestions bool
}

// NewFilterState returns the neutral state: all ranges fully open and
// page 1.
func NewFilterState(limits Limits) FilterState {
	return FilterState{
		PriceRange:   Range{0, limits.Price},
		StorageRange: Range{0, limits.Storage},
		Return1Y:     Range{0, limits.Return1Y},
		Return3Y:     Range{0, limits.Return3Y},
		Return5Y:     Range{0, limits.Return5Y},
		Return10Y:    Range{0, limits.Return10Y},
		Page:         1,
	}
}

// Encode serializes the state into query-string values. Only fields
// that differ from the neutral state are emitted.
func (s FilterState) Encode(limits Limits) url.Values {
	values := url.Values{}

	if s.Search != "" {
		values.Set("search", s.Search)
	}
	setList(values, "category", s.Categories)
	setList(values, "country", s.Countries)
	setList(values, "assortment", s.Assortments)

	if len(s.Vintages) > 0 {
		parts := make([]string, len(s.Vintages))
		for i, v := range s.Vintages {
			parts[i] = strconv.Itoa(v)
		}
		values.Set("vintage", strings.Join(parts, ","))
	}

	setRange(values, "price", s.PriceRange, limits.Price)
	setRange(values, "storage", s.StorageRange, limits.Storage)
	setRange(values, "return1y", s.Return1Y, limits.Return1Y)
	setRange(values, "return3y", s.Return3Y, limits.Return3Y)
	setRange(values, "return5y", s.Return5Y, limits.Return5Y)
	setRange(values, "return10y", s.Return10Y, limits.Return10Y)

	if s.WindowFrom != 0 || s.WindowTo != 0 {
		values.Set("window", fmt.Sprintf("%d-%d", s.WindowFrom, s.WindowTo))
	}

	if s.SortField != "" {
		dir := "asc"
		if s.SortDesc {
			dir = "desc"
		}
		values.Set("sort", s.SortField+":"+dir)
	}
	if s.Page > 1 {
		values.Set("page", strconv.Itoa(s.Page))
	}
	if s.Suggestions {
		values.Set("suggestions", "1")
	}

	return values
}

// DecodeFilterState parses query-string values back into a state,
// falling back to the neutral state for absent or malformed fields.
func DecodeFilterState(values url.Values, limits Limits) FilterState {
	state := NewFilterState(limits)

	state.Search = values.Get("search")
	state.Categories = getList(values, "category")
	state.Countries = getList(values, "country")
	state.Assortments = getList(values, "assortment")

	for _, part := range getList(values, "vintage") {
		if year, err := strconv.Atoi(part); err == nil {
			state.Vintages = append(state.Vintages, year)
		}
	}

	state.PriceRange = getRange(values, "price", state.PriceRange)
	state.StorageRange = getRange(values, "storage", state.StorageRange)
	state.Return1Y = getRange(values, "return1y", state.Return1Y)
	state.Return3Y = getRange(values, "return3y", state.Return3Y)
	state.Return5Y = getRange(values, "return5y", state.Return5Y)
	state.Return10Y = getRange(values, "return10y", state.Return10Y)

	if window := values.Get("window"); window != "" {
		if lo, hi, ok := splitPair(window); ok {
			state.WindowFrom = int(lo)
			state.WindowTo = int(hi)
		}
	}

	if sortParam := values.Get("sort"); sortParam != "" {
		field, dir, _ := strings.Cut(sortParam, ":")
		state.SortField = field
		state.SortDesc = dir == "desc"
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		state.Page = page
	}
	state.Suggestions = values.Get("suggestions") == "1"

	return state
}

// Contains reports whether a range matches v under the open-upper-bound
// convention: a Max at or beyond limit matches any value above Min.
func (r Range) Contains(v, limit float64) bool {
	if v < r.Min {
		return false
	}
	if r.Max >= limit {
		return true
	}
	return v <= r.Max
}

func setList(values url.Values, key string, items []string) {
	if len(items) > 0 {
		values.Set(key, strings.Join(items, ","))
	}
}

func getList(values url.Values, key string) []string {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func setRange(values url.Values, key string, r Range, limit float64) {
	if r.Min != 0 || r.Max < limit {
		values.Set(key, fmt.Sprintf("%s-%s", formatBound(r.Min), formatBound(r.Max)))
	}
}

func getRange(values url.Values, key string, fallback Range) Range {
	raw := values.Get(key)
	if raw == "" {
		return fallback
	}
	lo, hi, ok := splitPair(raw)
	if !ok {
		return fallback
	}
	return Range{Min: lo, Max: hi}
}

func splitPair(raw string) (float64, float64, bool) {
	lo, hi, found := strings.Cut(raw, "-")
	if !found {
		return 0, 0, false
	}
	min, err1 := strconv.ParseFloat(lo, 64)
	max, err2 := strconv.ParseFloat(hi, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return min, max, true
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
