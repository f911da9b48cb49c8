package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisure/weatherindex/internal/config"
	"github.com/agrisure/weatherindex/internal/optimize"
	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/weather"
)

func optimizeCmd() *cobra.Command {
	var requestPath, outPath string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for product designs that maximize value under a premium cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			req, err := readRequest(requestPath)
			if err != nil {
				return err
			}

			store := weather.NewStore(cfg.Data.Dir, cfg.Data.Country)
			orch := optimize.NewOrchestrator(store, cfg.OrchestratorConfig())
			results, err := orch.Run(cmd.Context(), *req)
			if err != nil {
				return err
			}
			return writeJSON(outPath, results)
		},
	}
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "path to request JSON (- for stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "path for result JSON (default stdout)")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func readRequest(path string) (*product.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req product.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
