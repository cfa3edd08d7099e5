package adapter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/logger"
	"shopwatch/internal/features/watch/domain"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// EmailSink implements the NotificationSink port over SMTP.
type EmailSink struct {
	cfg    config.EmailConfig
	shop   config.ShopConfig
	prices domain.PriceFormat
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewEmailSink creates an EmailSink from the SMTP configuration.
func NewEmailSink(cfg config.EmailConfig, shop config.ShopConfig, prices domain.PriceFormat) *EmailSink {
	return &EmailSink{
		cfg:    cfg,
		shop:   shop,
		prices: prices,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.Password),
		logger: logger.Get(),
	}
}

// emailData is the template context for both notification bodies.
type emailData struct {
	ProductLink  string
	ProductName  string
	CurrentPrice string
	MaxPrice     string
	Difference   string
	OrderNumber  string
}

func (s *EmailSink) data(product *domain.Product) emailData {
	return emailData{
		ProductLink:  productURL(s.shop, product.ID),
		ProductName:  product.Name,
		CurrentPrice: s.prices.Format(product.CurrentPrice),
		MaxPrice:     s.prices.Format(product.MaxPrice),
		Difference:   s.prices.Format(product.CurrentPrice.Sub(product.MaxPrice)),
	}
}

// NotifyPriceAboveCeiling implements NotificationSink.
func (s *EmailSink) NotifyPriceAboveCeiling(ctx context.Context, product *domain.Product) error {
	if !s.cfg.NotifyAboveCeiling {
		return nil
	}
	body, err := renderEmail("above_ceiling.html", s.data(product))
	if err != nil {
		return err
	}
	return s.send("Товар в наличии", body)
}

// NotifyOrdered implements NotificationSink.
func (s *EmailSink) NotifyOrdered(ctx context.Context, product *domain.Product, orderNumber string) error {
	data := s.data(product)
	data.OrderNumber = orderNumber
	body, err := renderEmail("ordered.html", data)
	if err != nil {
		return err
	}
	if err := s.send("Заказ товара", body); err != nil {
		return err
	}
	s.logger.Info("Order notification email sent",
		zap.Int("product_id", product.ID),
		zap.String("order_number", orderNumber),
	)
	return nil
}

func renderEmail(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *EmailSink) send(subject, body string) error {
	to := s.cfg.To
	if s.cfg.ToSameAsFrom || to == "" {
		to = s.cfg.From
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromDisplay)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}
