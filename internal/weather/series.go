package weather

import (
	"sort"
	"time"

	"github.com/agrisure/weatherindex/internal/product"
)

// MissingValue is the sentinel written into temperature files for days with
// no satellite observation. Windows exclude it before any reduction.
const MissingValue = -999.0

// Series is a loaded daily weather table: one row per calendar day, one
// column per sub-location. Read-only after load.
type Series struct {
	dates   []time.Time
	columns map[string][]float64
}

// Columns returns the sub-location keys present in the series, sorted.
func (s *Series) Columns() []string {
	keys := make([]string, 0, len(s.columns))
	for k := range s.columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Column resolves a sub-location key, falling back to the bare commune name
// for files written before composite keys were introduced.
func (s *Series) Column(loc product.Location) (string, error) {
	if _, ok := s.columns[loc.ColumnKey()]; ok {
		return loc.ColumnKey(), nil
	}
	if _, ok := s.columns[loc.Commune]; ok {
		return loc.Commune, nil
	}
	return "", &product.ValidationError{
		Field:       "commune",
		Value:       loc.ColumnKey(),
		Suggestions: s.Columns(),
	}
}

// Years returns the distinct calendar years present, ascending.
func (s *Series) Years() []int {
	var years []int
	for _, d := range s.dates {
		y := d.Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return years
}

// LastYears returns the most recent n years available.
func (s *Series) LastYears(n int) []int {
	years := s.Years()
	if len(years) > n {
		years = years[len(years)-n:]
	}
	return years
}

// Window returns the daily observations for column key within the inclusive
// 0-indexed day-of-year window of the given year. An endDay past 364 spans
// into January of year+1; days beyond the end of the loaded series are simply
// absent from the result.
func (s *Series) Window(key string, year, startDay, endDay int) []float64 {
	col, ok := s.columns[key]
	if !ok {
		return nil
	}
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	start := jan1.AddDate(0, 0, startDay)
	end := jan1.AddDate(0, 0, endDay)

	lo := sort.Search(len(s.dates), func(i int) bool { return !s.dates[i].Before(start) })
	hi := sort.Search(len(s.dates), func(i int) bool { return s.dates[i].After(end) })
	if lo >= hi {
		return nil
	}
	out := make([]float64, hi-lo)
	copy(out, col[lo:hi])
	return out
}
