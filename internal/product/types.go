package product

import "fmt"

// DataType selects which weather variable a product is written against.
type DataType string

const (
	DataPrecipitation DataType = "precipitation"
	DataTemperature   DataType = "temperature"
)

// PerilType identifies one of the four supported index perils.
type PerilType string

const (
	LowRainfall     PerilType = "LRI"
	ExcessRainfall  PerilType = "ERI"
	LowTemperature  PerilType = "LTI"
	HighTemperature PerilType = "HTI"
)

// IsRainfall reports whether the peril is evaluated against precipitation data.
// Rainfall perils use rolling sums; temperature perils use rolling means.
func (p PerilType) IsRainfall() bool {
	return p == LowRainfall || p == ExcessRainfall
}

// IsDeficit reports whether the peril triggers below its threshold.
// Deficit perils take the minimum windowed value; excess perils the maximum.
func (p PerilType) IsDeficit() bool {
	return p == LowRainfall || p == LowTemperature
}

// DataType returns the weather variable this peril is evaluated against.
func (p PerilType) DataType() DataType {
	if p.IsRainfall() {
		return DataPrecipitation
	}
	return DataTemperature
}

// Display returns the user-facing name for the peril.
func (p PerilType) Display() string {
	switch p {
	case LowRainfall:
		return "Low Rainfall"
	case ExcessRainfall:
		return "High Rainfall"
	case LowTemperature:
		return "Low Temperature"
	case HighTemperature:
		return "High Temperature"
	}
	return string(p)
}

// Unit returns the measurement unit suffix used in trigger display strings.
func (p PerilType) Unit() string {
	if p.IsRainfall() {
		return "mm"
	}
	return "°C"
}

// Valid reports whether p is one of the four supported peril types.
func (p PerilType) Valid() bool {
	switch p {
	case LowRainfall, ExcessRainfall, LowTemperature, HighTemperature:
		return true
	}
	return false
}

// PairFor returns the canonical deficit/excess pair for a data type. A "Both"
// period expands into exactly these two perils.
func PairFor(dt DataType) (deficit, excess PerilType) {
	if dt == DataTemperature {
		return LowTemperature, HighTemperature
	}
	return LowRainfall, ExcessRainfall
}

// Peril is one trigger within a coverage period. AllocatedSI is the share of
// the product sum insured reserved for this slot; payouts never exceed it.
type Peril struct {
	Type        PerilType `json:"peril_type"`
	Trigger     float64   `json:"trigger"`
	Duration    int       `json:"duration"`
	UnitPayout  float64   `json:"unit_payout"`
	MaxPayout   float64   `json:"max_payout"`
	AllocatedSI float64   `json:"allocated_si"`
}

// CoveragePeriod is an inclusive day-of-year window carrying one or two
// perils. Days are 0-indexed; EndDay past 364 wraps into the following year.
type CoveragePeriod struct {
	StartDay int     `json:"start_day"`
	EndDay   int     `json:"end_day"`
	Perils   []Peril `json:"perils"`
}

// Length returns the number of days in the period window.
func (cp CoveragePeriod) Length() int {
	return cp.EndDay - cp.StartDay + 1
}

// Design is a complete product candidate: a cap on the annual aggregate
// payout plus an ordered list of coverage periods.
type Design struct {
	SumInsured float64          `json:"sum_insured"`
	Periods    []CoveragePeriod `json:"periods"`
}

// Location identifies the insured site. Weather files are keyed by province;
// columns within a file are keyed by the district+commune composite.
type Location struct {
	Province string
	District string
	Commune  string
}

// ColumnKey returns the sub-location column identifier inside a weather file.
func (l Location) ColumnKey() string {
	return l.District + "_" + l.Commune
}

// ValidationError reports a malformed request value together with the values
// that would have been accepted.
type ValidationError struct {
	Field       string
	Value       string
	Suggestions []string
}

func (e *ValidationError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s: %q (valid: %v)", e.Field, e.Value, e.Suggestions)
}
