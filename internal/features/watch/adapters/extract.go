package adapter

import (
	"strings"

	"shopwatch/internal/features/watch/domain"

	"github.com/PuerkitoBio/goquery"
)

// Selectors names the markup markers a product page is read through.
// They are configuration, not code: when the shop changes its markup only
// these change.
type Selectors struct {
	// NotFound matches the node whose text carries the not-found marker.
	NotFound string
	// NotFoundText is the marker text for an unknown article.
	NotFoundText string
	// Name matches the product display name node.
	Name string
	// Stock matches the availability node.
	Stock string
	// InStockText is the availability text meaning "can be ordered".
	InStockText string
	// Price matches the price node; the value is read from PriceAttr,
	// or the node text when PriceAttr is empty.
	Price string
	// PriceAttr is the attribute carrying the machine-readable price.
	PriceAttr string
	// OrderToken matches the order-form token input.
	OrderToken string
	// Confirmation matches the order-number node on the confirmation page.
	Confirmation string
}

// DefaultSelectors returns the marker set for the supported shop markup.
func DefaultSelectors() Selectors {
	return Selectors{
		NotFound:     ".top",
		NotFoundText: "Товар не найден",
		Name:         "#goods_head",
		Stock:        "[class*='goodCard_inStock_button']",
		InStockText:  "в наличии",
		Price:        "[itemprop='price']",
		PriceAttr:    "content",
		OrderToken:   "input[name='token']",
		Confirmation: ".green",
	}
}

// extractSnapshot reads the product facts out of a parsed page. The
// session cookie is transport-level and filled in by the fetcher.
func extractSnapshot(doc *goquery.Document, sel Selectors, prices domain.PriceFormat) (*domain.PageSnapshot, error) {
	if sel.NotFound != "" {
		notFound := false
		doc.Find(sel.NotFound).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.Text(), sel.NotFoundText) {
				notFound = true
				return false
			}
			return true
		})
		if notFound {
			return &domain.PageSnapshot{Found: false}, nil
		}
	}

	name := strings.TrimSpace(doc.Find(sel.Name).First().Text())
	stockText := strings.TrimSpace(doc.Find(sel.Stock).First().Text())

	// A recognizable product page carries at least one of these markers;
	// a page with neither means the shop markup changed under us.
	if name == "" && stockText == "" {
		return nil, domain.NewMalformedError("page has neither name marker %q nor stock marker %q", sel.Name, sel.Stock)
	}

	snapshot := &domain.PageSnapshot{
		Found:   true,
		Name:    name,
		InStock: strings.EqualFold(stockText, sel.InStockText),
	}

	if !snapshot.InStock {
		return snapshot, nil
	}

	priceNode := doc.Find(sel.Price).First()
	var rawPrice string
	if sel.PriceAttr != "" {
		rawPrice, _ = priceNode.Attr(sel.PriceAttr)
	} else {
		rawPrice = priceNode.Text()
	}
	if strings.TrimSpace(rawPrice) == "" {
		return nil, domain.NewMalformedError("in-stock page is missing the price marker %q", sel.Price)
	}

	price, err := prices.Parse(rawPrice)
	if err != nil {
		return nil, domain.NewMalformedError("in-stock page has unparseable price: %v", err)
	}
	snapshot.Price = price

	token, _ := doc.Find(sel.OrderToken).First().Attr("value")
	if token == "" {
		return nil, domain.NewMalformedError("in-stock page is missing the order token %q", sel.OrderToken)
	}
	snapshot.OrderToken = token

	return snapshot, nil
}

// extractOrderNumber pulls the confirmation number out of an order
// response body. An empty result is not an error: the caller treats a
// confirmation-less success as inconclusive.
func extractOrderNumber(body string, sel Selectors) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(sel.Confirmation).First().Text())
}
