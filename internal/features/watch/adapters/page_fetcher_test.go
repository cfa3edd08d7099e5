package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/proxy"
	"shopwatch/internal/features/watch/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrices = domain.PriceFormat{DecimalSep: ",", ThousandsSep: " ", Currency: "руб."}

// inStockPage renders a product page in the supported shop markup.
func inStockPage(name, price, token string) string {
	return fmt.Sprintf(`<html><body>
		<div id="goods_head">%s</div>
		<div class="goodCard_inStock_button">в наличии</div>
		<span itemprop="price" content="%s">%s руб.</span>
		<form><input type="hidden" name="token" value="%s"/></form>
	</body></html>`, name, price, price, token)
}

func outOfStockPage(name string) string {
	return fmt.Sprintf(`<html><body>
		<div id="goods_head">%s</div>
		<div class="goodCard_inStock_button">нет в наличии</div>
	</body></html>`, name)
}

const notFoundPage = `<html><body>
	<div class="top">Товар не найден</div>
</body></html>`

// newTestFetcher wires an HTTPFetcher against a test shop server.
func newTestFetcher(serverURL string) *HTTPFetcher {
	shop := config.ShopConfig{
		URL:           serverURL,
		ProductPath:   "/catalog/tovar",
		SessionCookie: "PHPSESSID",
	}
	return NewHTTPFetcher(shop, DefaultSelectors(), testPrices, proxy.Settings{})
}

// TestHTTPFetcher_Fetch_InStock reads name, price, token and session
// cookie out of an in-stock product page.
func TestHTTPFetcher_Fetch_InStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/tovar417058.htm", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "sess-417"})
		fmt.Fprint(w, inStockPage("Видеокарта RTX 3070", "45 990,00", "tok-417"))
	}))
	defer server.Close()

	snapshot, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)
	require.NoError(t, err)

	assert.True(t, snapshot.Found)
	assert.True(t, snapshot.InStock)
	assert.Equal(t, "Видеокарта RTX 3070", snapshot.Name)
	assert.True(t, snapshot.Price.Equal(decimal.NewFromInt(45990)))
	assert.Equal(t, "tok-417", snapshot.OrderToken)
	assert.Equal(t, "sess-417", snapshot.SessionCookie)
}

// TestHTTPFetcher_Fetch_OutOfStock reports a known product that cannot
// be ordered yet; no price or token is required.
func TestHTTPFetcher_Fetch_OutOfStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, outOfStockPage("Видеокарта RTX 3070"))
	}))
	defer server.Close()

	snapshot, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)
	require.NoError(t, err)

	assert.True(t, snapshot.Found)
	assert.False(t, snapshot.InStock)
	assert.Equal(t, "Видеокарта RTX 3070", snapshot.Name)
	assert.Empty(t, snapshot.OrderToken)
}

// TestHTTPFetcher_Fetch_NotFoundMarker recognizes the shop's textual
// not-found marker on an otherwise successful response.
func TestHTTPFetcher_Fetch_NotFoundMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, notFoundPage)
	}))
	defer server.Close()

	snapshot, err := newTestFetcher(server.URL).Fetch(context.Background(), 999999)
	require.NoError(t, err)

	assert.False(t, snapshot.Found)
}

// TestHTTPFetcher_Fetch_NotFoundStatus treats an HTTP 404 the same as
// the textual marker.
func TestHTTPFetcher_Fetch_NotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	snapshot, err := newTestFetcher(server.URL).Fetch(context.Background(), 999999)
	require.NoError(t, err)

	assert.False(t, snapshot.Found)
}

// TestHTTPFetcher_Fetch_ServerError surfaces non-success statuses as
// retryable network errors.
func TestHTTPFetcher_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.FetchNetwork, fetchErr.Kind)
}

// TestHTTPFetcher_Fetch_ConnectionRefused surfaces transport failures
// as retryable network errors.
func TestHTTPFetcher_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.FetchNetwork, fetchErr.Kind)
}

// TestHTTPFetcher_Fetch_UnrecognizedMarkup flags pages carrying neither
// the name nor the stock marker as malformed.
func TestHTTPFetcher_Fetch_UnrecognizedMarkup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>maintenance</p></body></html>`)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.FetchMalformed, fetchErr.Kind)
}

// TestHTTPFetcher_Fetch_InStockWithoutToken rejects an in-stock page
// with no order token: ordering would be impossible.
func TestHTTPFetcher_Fetch_InStockWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div id="goods_head">Товар</div>
			<div class="goodCard_inStock_button">в наличии</div>
			<span itemprop="price" content="100,00"></span>
		</body></html>`)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), 417058)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.FetchMalformed, fetchErr.Kind)
}

// TestHTTPFetcher_Fetch_ContextCancelled aborts an in-flight fetch.
func TestHTTPFetcher_Fetch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, notFoundPage)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(ctx, 417058)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
