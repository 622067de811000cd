package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"imoveis-scraper/config"
	"imoveis-scraper/models"
	"imoveis-scraper/scraper/zapimoveis"
	"imoveis-scraper/storage"
)

func newHarvestCmd() *cobra.Command {
	var (
		city        string
		state       string
		pages       int
		detectPages bool
		headless    bool
		minDelay    float64
		maxDelay    float64
		outputDir   string
		noSavePages bool
		configFile  string
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Capture listing pages for one city into per-page CSV files",
		Long: `Harvest paginates through the ZapImóveis search results for the given
city/state, extracting one record per listing card. Each page is written
to its own file before the next page is fetched, so an interrupted run
keeps everything it already captured.

Without --pages the run continues until two consecutive pages come back
empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if configFile != "" {
				if err := cfg.MergeFile(configFile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}
			if cmd.Flags().Changed("min-delay") {
				cfg.MinDelaySec = minDelay
			}
			if cmd.Flags().Changed("max-delay") {
				cfg.MaxDelaySec = maxDelay
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if noSavePages {
				cfg.SavePerPage = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := buildLogger(cfg)
			defer logger.Close()

			store, err := storage.NewCaptureStore(cfg.OutputDir)
			if err != nil {
				return err
			}

			fetcher := zapimoveis.NewChromeFetcher(cfg, logger)
			harvester := zapimoveis.New(cfg, logger, fetcher, store)

			params := zapimoveis.Params{City: city, State: state, PageLimit: pages}
			ctx := cmd.Context()
			if detectPages && pages == 0 {
				params.PageLimit = harvester.DetectTotalPages(ctx, params)
			}

			summary, runErr := harvester.Run(ctx, params)
			printSummary(summary)
			return runErr
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city name, e.g. guarapuava (required)")
	cmd.Flags().StringVar(&state, "state", "", "two-letter state code, e.g. pr (required)")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of pages to capture (0 = until inventory runs out)")
	cmd.Flags().BoolVar(&detectPages, "detect-pages", false, "probe the site's paginator to bound the run")
	cmd.Flags().BoolVar(&headless, "headless", false, "render without a browser window")
	cmd.Flags().Float64Var(&minDelay, "min-delay", 5, "minimum seconds between pages")
	cmd.Flags().Float64Var(&maxDelay, "max-delay", 10, "maximum seconds between pages")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for per-page capture files")
	cmd.Flags().BoolVar(&noSavePages, "no-save-pages", false, "disable per-page persistence (removes crash safety)")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file overlaid on env settings")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

func printSummary(s *models.HarvestSummary) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("HARVEST SUMMARY")
	fmt.Println(line)
	fmt.Printf("City:            %s/%s\n", s.City, strings.ToUpper(s.State))
	fmt.Printf("Pages visited:   %d\n", s.PagesVisited)
	fmt.Printf("Records:         %d\n", s.Records)
	fmt.Printf("Cards skipped:   %d\n", s.CardsSkipped)
	fmt.Printf("Empty streak:    %d\n", s.EmptyStreak)
	fmt.Printf("Stopped because: %s\n", s.StopReason)
	if s.FatalErr != nil {
		fmt.Printf("Recorded error:  %v\n", s.FatalErr)
	}
	fmt.Println(line)
}
