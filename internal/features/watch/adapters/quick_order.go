package adapter

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/httpclient"
	"shopwatch/internal/core/logger"
	"shopwatch/internal/core/proxy"
	"shopwatch/internal/features/watch/domain"

	"go.uber.org/zap"
)

// QuickOrderSubmitter implements the OrderSubmitter port against the
// shop's quick-order endpoint. The session cookie and token must come
// from the same page fetch: the shop's anti-replay token is only valid
// for the session that issued it.
type QuickOrderSubmitter struct {
	shop      config.ShopConfig
	buyer     config.BuyerConfig
	selectors Selectors
	prices    domain.PriceFormat
	client    *http.Client
	logger    *zap.Logger
}

// NewQuickOrderSubmitter creates a QuickOrderSubmitter for the given shop and buyer.
func NewQuickOrderSubmitter(shop config.ShopConfig, buyer config.BuyerConfig, selectors Selectors, prices domain.PriceFormat, proxySettings proxy.Settings) *QuickOrderSubmitter {
	client, ok := newPinningClient(shop.URL, proxySettings)
	if !ok {
		// Plain-HTTP shops (tests, local mirrors) have nothing to pin.
		client = httpclient.NewBrowserClient(30*time.Second, proxySettings)
	}

	return &QuickOrderSubmitter{
		shop:      shop,
		buyer:     buyer,
		selectors: selectors,
		prices:    prices,
		client:    client,
		logger:    logger.Get(),
	}
}

// Submit implements OrderSubmitter.
func (s *QuickOrderSubmitter) Submit(ctx context.Context, product *domain.Product, orderToken, sessionCookie string) (*domain.OrderOutcome, error) {
	s.logger.Info("Attempting to order product",
		zap.Int("product_id", product.ID),
		zap.String("product_name", product.Name),
		zap.String("price", s.prices.Format(product.CurrentPrice)),
	)

	endpoint := fmt.Sprintf("%s%s?good_id=%d&type=1&fam=%s&tel=%s&token=%s&tokenName=quick_order&close_button=false",
		s.shop.URL, s.shop.QuickOrderPath, product.ID,
		url.QueryEscape(s.buyer.Name), url.QueryEscape(s.buyer.Phone), url.QueryEscape(orderToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.SubmitError{Err: fmt.Errorf("failed to create order request: %w", err)}
	}

	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", productURL(s.shop, product.ID))
	req.AddCookie(&http.Cookie{Name: s.shop.SessionCookie, Value: sessionCookie})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.SubmitError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.OrderOutcome{Status: domain.OrderFailed}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.SubmitError{Err: fmt.Errorf("failed to read order response: %w", err)}
	}

	return &domain.OrderOutcome{
		Status:      domain.OrderPlaced,
		RawBody:     string(body),
		OrderNumber: extractOrderNumber(string(body), s.selectors),
	}, nil
}

// newPinningClient builds the order client for an https shop. The first
// successful handshake records the server's leaf certificate; every
// later handshake must present the same one. Chain verification is
// replaced by the pin. The handshake runs on the order transport
// itself, so a configured upstream proxy carries it too, and a failed
// handshake records nothing; the next attempt pins afresh.
func newPinningClient(shopURL string, proxySettings proxy.Settings) (*http.Client, bool) {
	parsed, err := url.Parse(shopURL)
	if err != nil || parsed.Scheme != "https" {
		return nil, false
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxySettings.HasProxy() {
		if proxyURL, err := url.Parse(proxySettings.FullURL()); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	pin := &certPin{host: parsed.Hostname()}
	transport.TLSClientConfig = &tls.Config{
		ServerName:            parsed.Hostname(),
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: pin.verify,
	}

	return &http.Client{
		Transport: &httpclient.LoggingRoundTripper{
			Proxied: &httpclient.BrowserRoundTripper{Proxied: transport},
		},
		Timeout: 30 * time.Second,
	}, true
}

// certPin holds the leaf-certificate fingerprint the shop is held to.
type certPin struct {
	host string

	mu     sync.Mutex
	pinned bool
	sum    [sha256.Size]byte
}

func (p *certPin) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("server presented no certificate")
	}
	sum := sha256.Sum256(rawCerts[0])

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pinned {
		p.pinned = true
		p.sum = sum
		logger.Get().Info("Pinned shop server certificate",
			zap.String("host", p.host),
			zap.String("sha256", fmt.Sprintf("%x", sum)),
		)
		return nil
	}
	if sum != p.sum {
		return errors.New("server certificate does not match pinned fingerprint")
	}
	return nil
}
