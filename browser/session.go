package browser

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Renderer is the subset of Session the scrapers depend on.
type Renderer interface {
	Render(ctx context.Context, url string, waitMs int) (string, error)
	Evaluate(ctx context.Context, url, script string, waitMs int) (any, error)
	CollectLinks(ctx context.Context, url, clickText, selector string, waitMs int) ([]string, error)
}

var _ Renderer = (*Session)(nil)

const navigationTimeoutMs = 60000

// Session lazily starts one Chromium instance and opens a fresh page per call.
type Session struct {
	headless  bool
	userAgent string

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	initialized bool
}

func NewSession(headless bool, userAgent string) *Session {
	return &Session{headless: headless, userAgent: userAgent}
}

func (s *Session) ensureBrowser() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	var err error
	s.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	s.browser, err = s.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		s.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{}
	if s.userAgent != "" {
		opts.UserAgent = playwright.String(s.userAgent)
	}
	s.context, err = s.browser.NewContext(opts)
	if err != nil {
		s.browser.Close()
		s.pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	s.initialized = true
	return nil
}

func (s *Session) open(ctx context.Context, url string) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	_, err = page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(navigationTimeoutMs),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	return page, nil
}

// Render returns the page HTML after waitMs of client-side rendering.
func (s *Session) Render(ctx context.Context, url string, waitMs int) (string, error) {
	page, err := s.open(ctx, url)
	if err != nil {
		return "", err
	}
	defer page.Close()

	if waitMs > 0 {
		page.WaitForTimeout(float64(waitMs))
	}
	return page.Content()
}

// Evaluate runs script in the loaded page and returns its JSON-compatible result.
func (s *Session) Evaluate(ctx context.Context, url, script string, waitMs int) (any, error) {
	page, err := s.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if waitMs > 0 {
		page.WaitForTimeout(float64(waitMs))
	}
	result, err := page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("evaluate on %s: %w", url, err)
	}
	return result, nil
}

// CollectLinks optionally clicks an element by visible text, waits, and
// returns the href of every element matching selector.
func (s *Session) CollectLinks(ctx context.Context, url, clickText, selector string, waitMs int) ([]string, error) {
	page, err := s.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if clickText != "" {
		if err := page.Locator("text=" + clickText).First().Click(); err != nil {
			log.Printf("Browser: click %q on %s failed: %v", clickText, url, err)
		}
	}
	if waitMs > 0 {
		page.WaitForTimeout(float64(waitMs))
	}

	links, err := page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", selector, err)
	}

	var hrefs []string
	for _, link := range links {
		href, err := link.GetAttribute("href")
		if err == nil && href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.context != nil {
		s.context.Close()
		s.context = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		s.pw.Stop()
		s.pw = nil
	}
	s.initialized = false
}
