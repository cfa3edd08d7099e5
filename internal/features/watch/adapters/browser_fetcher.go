package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/logger"
	"shopwatch/internal/core/proxy"
	"shopwatch/internal/features/watch/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// BrowserFetcher implements the PageFetcher port with a headless
// browser, for markup only rendered client-side. Authenticated proxies
// go through a local forwarder because Chromium takes no proxy
// credentials on the command line.
type BrowserFetcher struct {
	shop      config.ShopConfig
	selectors Selectors
	prices    domain.PriceFormat
	proxy     proxy.Settings
	logger    *zap.Logger
}

// NewBrowserFetcher creates a BrowserFetcher for the given shop.
func NewBrowserFetcher(shop config.ShopConfig, selectors Selectors, prices domain.PriceFormat, proxySettings proxy.Settings) *BrowserFetcher {
	return &BrowserFetcher{
		shop:      shop,
		selectors: selectors,
		prices:    prices,
		proxy:     proxySettings,
		logger:    logger.Get(),
	}
}

// Fetch implements PageFetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, productID int) (*domain.PageSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pageURL := productURL(f.shop, productID)

	var localProxyAddr string
	if f.proxy.HasProxy() && f.proxy.HasAuth() {
		forwarder, err := proxy.NewForwardingProxy(f.proxy.FullURL())
		if err != nil {
			return nil, domain.NewNetworkError(fmt.Errorf("failed to create proxy forwarder: %w", err))
		}
		localProxyAddr, err = forwarder.Start(ctx)
		if err != nil {
			return nil, domain.NewNetworkError(fmt.Errorf("failed to start proxy forwarder: %w", err))
		}
		defer forwarder.Stop()
	} else if f.proxy.HasProxy() {
		localProxyAddr = f.proxy.HostPort()
	}

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if localProxyAddr != "" {
		l = l.Proxy(localProxyAddr)
		f.logger.Debug("Browser configured with proxy", zap.String("proxy", localProxyAddr))
	}

	u, err := l.Launch()
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("failed to launch browser: %w", err))
	}

	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("failed to connect to browser: %w", err))
	}
	defer browser.Close()

	var html, cookie string
	err = rod.Try(func() {
		page := browser.MustPage(pageURL)
		page.MustWaitLoad()
		html = page.MustHTML()
		for _, c := range page.MustCookies() {
			if c.Name == f.shop.SessionCookie {
				cookie = c.Value
			}
		}
	})
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("browser navigation failed: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, domain.NewMalformedError("failed to parse rendered markup: %v", err)
	}

	snapshot, err := extractSnapshot(doc, f.selectors, f.prices)
	if err != nil {
		return nil, err
	}
	snapshot.SessionCookie = cookie

	return snapshot, nil
}
