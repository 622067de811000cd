package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"imoveis-scraper/config"
	"imoveis-scraper/utils"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imoveis-scraper",
		Short: "Residential listing harvester and dataset consolidator for ZapImóveis",
		Long: `imoveis-scraper captures property listings from ZapImóveis search
results into crash-safe per-page CSV files, and consolidates those
captures into a single deduplicated dataset for the price-modeling
pipeline downstream.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newConsolidateCmd())

	return cmd
}

func buildLogger(cfg *config.Config) *utils.Logger {
	if cfg.LogFile == "" {
		return utils.NewLogger()
	}
	return utils.NewFileLogger(cfg.LogFile)
}
