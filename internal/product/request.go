package product

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Request is the JSON shape accepted by the orchestrator. Numeric fields
// arrive as strings, matching the upstream client contract.
type Request struct {
	Product struct {
		Commune    string `json:"commune"`
		Province   string `json:"province"`
		District   string `json:"district"`
		SumInsured string `json:"sumInsured"`
		PremiumCap string `json:"premiumCap"`
		DataType   string `json:"dataType"`
	} `json:"product"`
	Periods []RequestPeriod `json:"periods"`
}

// RequestPeriod is a single coverage window as submitted by the client.
// PerilType "Both" expands into the deficit/excess pair for the data type.
type RequestPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PerilType string `json:"perilType"`
}

// ParsedRequest is the validated, engine-ready form of a Request.
type ParsedRequest struct {
	Location   Location
	DataType   DataType
	SumInsured float64
	PremiumCap float64
	Periods    []CoveragePeriod
}

// ParseRequest validates a raw request and converts calendar dates into
// 0-indexed day-of-year windows. An end date that lands on an earlier
// day-of-year than its start date is treated as crossing the year boundary.
func ParseRequest(req Request) (*ParsedRequest, error) {
	if req.Product.Commune == "" {
		return nil, &ValidationError{Field: "product.commune", Value: ""}
	}
	if req.Product.Province == "" {
		return nil, &ValidationError{Field: "product.province", Value: ""}
	}

	sumInsured, err := parseAmount(req.Product.SumInsured)
	if err != nil || sumInsured <= 0 {
		return nil, &ValidationError{Field: "product.sumInsured", Value: req.Product.SumInsured}
	}
	premiumCap, err := parseAmount(req.Product.PremiumCap)
	if err != nil || premiumCap <= 0 {
		return nil, &ValidationError{Field: "product.premiumCap", Value: req.Product.PremiumCap}
	}

	dataType := DataPrecipitation
	switch req.Product.DataType {
	case "", string(DataPrecipitation):
	case string(DataTemperature):
		dataType = DataTemperature
	default:
		return nil, &ValidationError{
			Field:       "product.dataType",
			Value:       req.Product.DataType,
			Suggestions: []string{string(DataPrecipitation), string(DataTemperature)},
		}
	}

	if len(req.Periods) == 0 {
		return nil, &ValidationError{Field: "periods", Value: "[]"}
	}

	periods := make([]CoveragePeriod, 0, len(req.Periods))
	for i, rp := range req.Periods {
		cp, err := parsePeriod(rp, dataType)
		if err != nil {
			return nil, fmt.Errorf("periods[%d]: %w", i, err)
		}
		periods = append(periods, cp)
	}

	return &ParsedRequest{
		Location: Location{
			Province: strings.ReplaceAll(req.Product.Province, " ", ""),
			District: req.Product.District,
			Commune:  req.Product.Commune,
		},
		DataType:   dataType,
		SumInsured: sumInsured,
		PremiumCap: premiumCap,
		Periods:    periods,
	}, nil
}

func parsePeriod(rp RequestPeriod, dt DataType) (CoveragePeriod, error) {
	startDay, err := dayOfYear(rp.StartDate)
	if err != nil {
		return CoveragePeriod{}, &ValidationError{Field: "startDate", Value: rp.StartDate}
	}
	endDay, err := dayOfYear(rp.EndDate)
	if err != nil {
		return CoveragePeriod{}, &ValidationError{Field: "endDate", Value: rp.EndDate}
	}
	// Wraparound: an end date numerically before the start date means the
	// period runs into January of the following year.
	if endDay < startDay {
		endDay += 365
	}

	var perils []Peril
	switch rp.PerilType {
	case "Both":
		deficit, excess := PairFor(dt)
		perils = []Peril{{Type: deficit}, {Type: excess}}
	default:
		pt := PerilType(rp.PerilType)
		if !pt.Valid() {
			return CoveragePeriod{}, &ValidationError{
				Field:       "perilType",
				Value:       rp.PerilType,
				Suggestions: []string{"LRI", "ERI", "LTI", "HTI", "Both"},
			}
		}
		perils = []Peril{{Type: pt}}
	}

	return CoveragePeriod{StartDay: startDay, EndDay: endDay, Perils: perils}, nil
}

// dayOfYear converts an ISO date into a 0-indexed day-of-year.
func dayOfYear(s string) (int, error) {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.YearDay() - 1, nil
		}
	}
	return 0, fmt.Errorf("unparseable date %q", s)
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
