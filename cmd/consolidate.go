package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"imoveis-scraper/config"
	"imoveis-scraper/services"
)

func newConsolidateCmd() *cobra.Command {
	var (
		city       string
		state      string
		all        bool
		dir        string
		parquet    bool
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge per-page capture files into one deduplicated dataset",
		Long: `Consolidate scans the capture directory for per-page files, merges
them in page order, drops duplicate listings (same link, first one
wins), and writes a single consolidated CSV next to the capture
directory. Records are copied verbatim; cleaning happens downstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && (city == "" || state == "") {
				return fmt.Errorf("pass --city and --state for one city, or --all for everything")
			}
			if all {
				city, state = "", ""
			}

			cfg := config.Load()
			if configFile != "" {
				if err := cfg.MergeFile(configFile); err != nil {
					return err
				}
			}
			if dir == "" {
				dir = cfg.OutputDir
			}

			logger := buildLogger(cfg)
			defer logger.Close()

			consolidator := services.NewConsolidator(logger, dir, parquet)
			report, err := consolidator.Consolidate(services.Scope{City: city, State: state})
			if err != nil {
				// An empty scope is a reportable outcome, not a failure.
				if errors.Is(err, services.ErrNoCaptures) {
					consolidator.Print(report)
					return nil
				}
				return err
			}

			consolidator.Print(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city name to consolidate")
	cmd.Flags().StringVar(&state, "state", "", "two-letter state code")
	cmd.Flags().BoolVar(&all, "all", false, "consolidate every captured city")
	cmd.Flags().StringVar(&dir, "dir", "", "capture directory (default: the harvest output dir)")
	cmd.Flags().BoolVar(&parquet, "parquet", false, "also write a Parquet twin of the consolidated CSV")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file overlaid on env settings")

	return cmd
}
