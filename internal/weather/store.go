// Package weather loads and caches the daily observation tables the pricing
// engine replays. One file holds one (province, variable) table: a CSV with a
// Date column and one column per sub-location.
package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrisure/weatherindex/internal/product"
)

// ErrDataUnavailable indicates no backing file exists for a requested
// (province, data type) key.
var ErrDataUnavailable = errors.New("weather data unavailable")

// Store memoizes loaded series per (province, data type) key. A single
// optimization run re-reads the same series hundreds of times across trials,
// so the first Get per key does file I/O and every later Get is a map lookup.
// Call Clear once the run completes to release the tables.
type Store struct {
	dataDir string
	country string

	mu    sync.RWMutex
	cache map[string]*Series
}

// NewStore creates a store rooted at dataDir. Files are laid out as
// <dataDir>/<dataType>/<country>/<Province>.csv.
func NewStore(dataDir, country string) *Store {
	return &Store{
		dataDir: dataDir,
		country: country,
		cache:   make(map[string]*Series),
	}
}

// Get returns the series for a province and data type, loading it on first
// use. Concurrent callers racing on the same key may both load the file; the
// content is a pure function of the key, so last-write-wins is harmless.
func (st *Store) Get(province string, dataType product.DataType) (*Series, error) {
	key := province + "|" + string(dataType)

	st.mu.RLock()
	s, ok := st.cache[key]
	st.mu.RUnlock()
	if ok {
		return s, nil
	}

	path := filepath.Join(st.dataDir, string(dataType), st.country, province+".csv")
	s, err := loadCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrDataUnavailable, province, dataType)
		}
		return nil, fmt.Errorf("load weather file %s: %w", path, err)
	}
	log.Debug().Str("province", province).Str("data_type", string(dataType)).
		Int("days", len(s.dates)).Msg("weather series loaded")

	st.mu.Lock()
	st.cache[key] = s
	st.mu.Unlock()
	return s, nil
}

// Clear drops every cached series.
func (st *Store) Clear() {
	st.mu.Lock()
	st.cache = make(map[string]*Series)
	st.mu.Unlock()
}

func loadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "Date") {
		return nil, fmt.Errorf("unexpected header %v, want Date column first", header)
	}

	s := &Series{columns: make(map[string][]float64, len(header)-1)}
	names := make([]string, len(header)-1)
	for i, h := range header[1:] {
		names[i] = strings.TrimSpace(h)
		s.columns[names[i]] = nil
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return nil, err
		}
		if n := len(s.dates); n > 0 && !d.After(s.dates[n-1]) {
			return nil, fmt.Errorf("dates not strictly increasing at %s", rec[0])
		}
		s.dates = append(s.dates, d)
		for i, name := range names {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %s column %s: %w", rec[0], name, err)
			}
			s.columns[name] = append(s.columns[name], v)
		}
	}
	if len(s.dates) == 0 {
		return nil, fmt.Errorf("empty weather file")
	}
	return s, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}
