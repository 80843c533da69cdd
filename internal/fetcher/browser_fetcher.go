package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome for sites that build their
// content with JavaScript.
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
	settle    time.Duration
}

func NewBrowserFetcher(userAgent string, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{
		userAgent: userAgent,
		timeout:   timeout,
		settle:    2 * time.Second,
	}
}

func (bf *BrowserFetcher) FetchHTML(ctx context.Context, urlStr string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, bf.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(bf.userAgent),
		chromedp.Flag("disable-downloads", true),
		chromedp.Flag("disable-plugins", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(bf.settle),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch failed: %w", err)
	}

	return htmlContent, nil
}
