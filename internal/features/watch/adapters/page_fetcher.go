package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/httpclient"
	"shopwatch/internal/core/logger"
	"shopwatch/internal/core/proxy"
	"shopwatch/internal/features/watch/domain"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// productURL builds the page URL for an article number.
func productURL(shop config.ShopConfig, productID int) string {
	return fmt.Sprintf("%s%s%d.htm", shop.URL, shop.ProductPath, productID)
}

// HTTPFetcher implements the PageFetcher port with one plain GET per
// poll cycle, presenting a browser identity and capturing the session
// cookie the shop issues with the page.
type HTTPFetcher struct {
	shop      config.ShopConfig
	selectors Selectors
	prices    domain.PriceFormat
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPFetcher creates an HTTPFetcher for the given shop.
func NewHTTPFetcher(shop config.ShopConfig, selectors Selectors, prices domain.PriceFormat, proxySettings proxy.Settings) *HTTPFetcher {
	return &HTTPFetcher{
		shop:      shop,
		selectors: selectors,
		prices:    prices,
		client:    httpclient.NewBrowserClient(30*time.Second, proxySettings),
		logger:    logger.Get(),
	}
}

// Fetch implements PageFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, productID int) (*domain.PageSnapshot, error) {
	url := productURL(f.shop, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &domain.PageSnapshot{Found: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewNetworkError(fmt.Errorf("shop returned status %d for %s", resp.StatusCode, url))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewMalformedError("failed to parse page markup: %v", err)
	}

	snapshot, err := extractSnapshot(doc, f.selectors, f.prices)
	if err != nil {
		return nil, err
	}

	snapshot.SessionCookie = sessionCookie(resp.Cookies(), f.shop.SessionCookie)

	return snapshot, nil
}

// sessionCookie finds the named session cookie among the response cookies.
func sessionCookie(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
