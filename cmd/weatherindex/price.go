package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisure/weatherindex/internal/config"
	"github.com/agrisure/weatherindex/internal/pricing"
	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/weather"
)

// priceRequest is the input shape for pricing a fully specified design,
// bypassing the optimizer.
type priceRequest struct {
	Commune    string                   `json:"commune"`
	Province   string                   `json:"province"`
	District   string                   `json:"district"`
	DataType   string                   `json:"dataType"`
	SumInsured float64                  `json:"sumInsured"`
	Periods    []product.CoveragePeriod `json:"periods"`
}

func priceCmd() *cobra.Command {
	var designPath, outPath string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a fixed product design against historical weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			var data []byte
			if designPath == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(designPath)
			}
			if err != nil {
				return fmt.Errorf("read design: %w", err)
			}
			var req priceRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse design: %w", err)
			}

			dataType := product.DataType(req.DataType)
			if req.DataType == "" {
				dataType = product.DataPrecipitation
			}

			store := weather.NewStore(cfg.Data.Dir, cfg.Data.Country)
			defer store.Clear()
			engine := pricing.NewEngine(store, cfg.PricingConfig())
			res, err := engine.Price(
				product.Design{SumInsured: req.SumInsured, Periods: req.Periods},
				product.Location{Province: req.Province, District: req.District, Commune: req.Commune},
				dataType,
			)
			if err != nil {
				return err
			}
			return writeJSON(outPath, res)
		},
	}
	cmd.Flags().StringVarP(&designPath, "design", "d", "", "path to design JSON (- for stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "path for result JSON (default stdout)")
	_ = cmd.MarkFlagRequired("design")
	return cmd
}
