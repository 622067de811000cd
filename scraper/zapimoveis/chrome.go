package zapimoveis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"imoveis-scraper/config"
	"imoveis-scraper/utils"
)

// ErrSessionFailed marks a browser session that could not be established
// after exhausting the session retry budget. It is the only error class
// that terminates a harvest run.
var ErrSessionFailed = errors.New("browser session could not be established")

// ChromeFetcher renders result pages with a real browser. Every FetchPage
// call gets a brand-new browser process with a rotated user agent and a
// random viewport, torn down before the call returns — a long-lived
// session accumulates fingerprinting signal and invites blocking.
type ChromeFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	agents *agentPool
	rand   *rand.Rand
	retry  *utils.RetryConfig
	bin    string
}

// NewChromeFetcher locates the browser binary and prepares the session
// factory.
func NewChromeFetcher(cfg *config.Config, logger *utils.Logger) *ChromeFetcher {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ChromeFetcher{
		cfg:    cfg,
		logger: logger,
		agents: newAgentPool(r),
		rand:   r,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.SessionRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		bin: findChromeBinary(cfg.ChromeBin),
	}
}

type session struct {
	ctx   context.Context
	close func()
}

// FetchPage navigates a fresh session to url, waits for the content to
// render while simulating human scrolling, and returns the page HTML.
func (f *ChromeFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	var sess *session
	err := f.retry.Do(ctx, "start-session", func() error {
		s, serr := f.newSession(ctx)
		if serr != nil {
			return serr
		}
		sess = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionFailed, err)
	}
	defer sess.close()

	var html string
	err = chromedp.Run(sess.ctx,
		chromedp.Navigate(url),
		// hide the automation flag the driver exposes
		chromedp.Evaluate(`void Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`, nil),
		chromedp.Sleep(f.randDuration(5*time.Second, 8*time.Second)),
		f.humanScroll(),
		chromedp.Sleep(f.randDuration(2*time.Second, 3*time.Second)),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	return html, nil
}

// newSession starts one browser process. The returned close func releases
// the tab, the timeout, and the process, in that order.
func (f *ChromeFetcher) newSession(parent context.Context) (*session, error) {
	ua := f.agents.Next()
	width := f.rand.Intn(1920-1366+1) + 1366
	height := f.rand.Intn(1080-768+1) + 768

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(width, height),
	)
	if f.bin != "" {
		opts = append(opts, chromedp.ExecPath(f.bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	timeout := time.Duration(f.cfg.NavTimeoutSec) * time.Second
	runCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)

	s := &session{
		ctx: runCtx,
		close: func() {
			cancelTimeout()
			cancelTab()
			cancelAlloc()
		},
	}

	if err := chromedp.Run(runCtx); err != nil {
		s.close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	f.logger.Debug("[zap] Session started — UA: %.50s..., window %dx%d", ua, width, height)
	return s, nil
}

// humanScroll mimics a reader: three partial scrolls with pauses, down to
// the bottom, then back up a bit.
func (f *ChromeFetcher) humanScroll() chromedp.Tasks {
	tasks := chromedp.Tasks{}
	for i := 0; i < 3; i++ {
		amount := f.rand.Intn(400) + 300
		tasks = append(tasks,
			chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", amount), nil),
			chromedp.Sleep(f.randDuration(500*time.Millisecond, 1500*time.Millisecond)),
		)
	}
	tasks = append(tasks,
		chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil),
		chromedp.Sleep(f.randDuration(time.Second, 2*time.Second)),
		chromedp.Evaluate("window.scrollBy(0, -500)", nil),
		chromedp.Sleep(f.randDuration(500*time.Millisecond, time.Second)),
	)
	return tasks
}

func (f *ChromeFetcher) randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(f.rand.Int63n(int64(max-min)))
}

// findChromeBinary locates the Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
