package zapimoveis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"imoveis-scraper/config"
	"imoveis-scraper/models"
	"imoveis-scraper/utils"
)

const (
	baseURLFormat = siteBaseURL + "/venda/imoveis/%s+%s/"

	// maxEmptyStreak is the open-ended stop rule: two consecutive pages
	// without listings means the inventory ran out.
	maxEmptyStreak = 2

	// defaultTotalPages is used when the paginator cannot be read during
	// auto-detection.
	defaultTotalPages = 10
)

// PageFetcher renders one results page and returns its HTML. The
// production implementation is ChromeFetcher; tests substitute a fake.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// CaptureWriter persists one page's capture unit.
type CaptureWriter interface {
	WritePage(c *models.PageCapture) (string, error)
}

// Params are the explicit run parameters for one harvest.
type Params struct {
	City  string
	State string
	// PageLimit bounds the run. Zero means open-ended: run until two
	// consecutive empty pages.
	PageLimit int
}

// Harvester walks the paginated search results for one city/state and
// persists each page's records before moving on. Pages are fetched
// strictly one at a time: the anti-blocking strategy depends on
// serialized, human-paced request timing.
type Harvester struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher PageFetcher
	store   CaptureWriter
	retry   *utils.RetryConfig
	rand    *rand.Rand
}

// New creates a ready-to-use Harvester.
func New(cfg *config.Config, logger *utils.Logger, fetcher PageFetcher, store CaptureWriter) *Harvester {
	return &Harvester{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		store:   store,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drives the harvest until the termination policy fires. It always
// returns a summary; the error is non-nil only for the run-fatal case
// (session establishment exhausted), and even then every previously
// captured page remains persisted and valid.
func (h *Harvester) Run(ctx context.Context, p Params) (*models.HarvestSummary, error) {
	city := strings.ToLower(strings.TrimSpace(p.City))
	state := strings.ToLower(strings.TrimSpace(p.State))
	baseURL := fmt.Sprintf(baseURLFormat, state, city)

	limitLabel := "until inventory runs out"
	if p.PageLimit > 0 {
		limitLabel = fmt.Sprintf("%d pages", p.PageLimit)
	}
	h.logger.Info("[zap] Starting harvest — %s/%s, %s, delay %.1f–%.1fs",
		city, strings.ToUpper(state), limitLabel, h.cfg.MinDelaySec, h.cfg.MaxDelaySec)

	summary := &models.HarvestSummary{City: city, State: state}
	emptyStreak := 0

	for page := 1; ; page++ {
		if p.PageLimit > 0 && page > p.PageLimit {
			summary.StopReason = models.StopPageLimit
			break
		}

		// The randomized pause is paid on every page transition, fresh
		// session included.
		if page > 1 {
			h.pause()
		}

		url := fmt.Sprintf("%s?pagina=%d", baseURL, page)
		h.logger.Info("[zap] Page %d — %s", page, url)

		capture, skipped, err := h.capturePage(ctx, url, city, state, page)
		if err != nil {
			summary.StopReason = models.StopFatal
			summary.FatalErr = err
			h.logger.Error("[zap] Run-fatal failure on page %d: %v — keeping %d captured pages",
				page, err, summary.PagesVisited)
			break
		}

		summary.PagesVisited++
		summary.CardsSkipped += skipped

		if h.cfg.SavePerPage {
			path, werr := h.store.WritePage(capture)
			if werr != nil {
				h.logger.Error("[zap] Could not persist page %d: %v", page, werr)
			} else {
				h.logger.Info("[zap] Page %d saved to %s", page, path)
			}
		}

		if len(capture.Records) == 0 {
			emptyStreak++
			h.logger.Warn("[zap] Page %d had no listings (%d/%d)", page, emptyStreak, maxEmptyStreak)
			if emptyStreak >= maxEmptyStreak {
				summary.StopReason = models.StopEmptyStreak
				h.logger.Info("[zap] Stopping: %d consecutive pages without listings", maxEmptyStreak)
				break
			}
		} else {
			emptyStreak = 0
			summary.Records += len(capture.Records)
		}
	}

	summary.EmptyStreak = emptyStreak
	h.logger.Info("[zap] Harvest done — %d pages, %d records, %d cards skipped (stop: %s)",
		summary.PagesVisited, summary.Records, summary.CardsSkipped, summary.StopReason)
	return summary, summary.FatalErr
}

// capturePage fetches and extracts one page. Transient failures are
// retried with backoff; an exhausted budget degrades the page to an empty
// capture so the empty-streak policy still sees it. Session failures
// bubble up as run-fatal.
func (h *Harvester) capturePage(ctx context.Context, url, city, state string, page int) (*models.PageCapture, int, error) {
	var html string
	err := h.retry.Do(ctx, fmt.Sprintf("page-%d", page), func() error {
		out, ferr := h.fetcher.FetchPage(ctx, url)
		if ferr != nil {
			if errors.Is(ferr, ErrSessionFailed) {
				return utils.Permanent(ferr)
			}
			return ferr
		}
		html = out
		return nil
	})

	capture := &models.PageCapture{City: city, State: state, Page: page}
	if err != nil {
		if errors.Is(err, ErrSessionFailed) {
			return nil, 0, err
		}
		h.logger.Warn("[zap] Page %d degraded to empty after transient failures: %v", page, err)
		return capture, 0, nil
	}

	records, skipped := ExtractListings(html, city, state)
	capture.Records = records
	h.logger.Info("[zap] Page %d: %d listings extracted, %d cards skipped", page, len(records), skipped)
	return capture, skipped, nil
}

// DetectTotalPages probes the first results page and reads the site's
// paginator, bounding an otherwise open-ended run. Falls back to
// defaultTotalPages when the paginator cannot be read.
func (h *Harvester) DetectTotalPages(ctx context.Context, p Params) int {
	city := strings.ToLower(strings.TrimSpace(p.City))
	state := strings.ToLower(strings.TrimSpace(p.State))
	url := fmt.Sprintf(baseURLFormat, state, city)

	html, err := h.fetcher.FetchPage(ctx, url)
	if err != nil {
		h.logger.Warn("[zap] Page-count probe failed: %v — assuming %d pages", err, defaultTotalPages)
		return defaultTotalPages
	}

	if total := detectTotalPages(html); total > 0 {
		h.logger.Info("[zap] Detected %d result pages", total)
		return total
	}
	h.logger.Warn("[zap] Could not read the paginator — assuming %d pages", defaultTotalPages)
	return defaultTotalPages
}

func (h *Harvester) pause() {
	min, max := h.cfg.MinDelaySec, h.cfg.MaxDelaySec
	if max <= 0 {
		return
	}
	d := time.Duration((min + h.rand.Float64()*(max-min)) * float64(time.Second))
	h.logger.Info("[zap] Waiting %.1fs before the next page...", d.Seconds())
	time.Sleep(d)
}
