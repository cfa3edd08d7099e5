package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopwatch/internal/core/config"
	"shopwatch/internal/core/logger"
	"shopwatch/internal/core/proxy"
	"shopwatch/internal/core/server"
	adapter "shopwatch/internal/features/watch/adapters"
	"shopwatch/internal/features/watch/domain"
	"shopwatch/internal/features/watch/handler"
	"shopwatch/internal/features/watch/ports"
	"shopwatch/internal/features/watch/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	art := pflag.Int("art", 0, "article number to track (overrides the products file)")
	maxPrice := pflag.Float64("max-price", 0, "price ceiling for --art")
	pflag.Parse()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("fetcher", cfg.Shop.Fetcher),
		zap.String("shop_url", cfg.Shop.URL),
	)

	prices := domain.PriceFormat{
		DecimalSep:   cfg.Price.DecimalSep,
		ThousandsSep: cfg.Price.ThousandsSep,
		Currency:     cfg.Price.Currency,
	}
	proxySettings := proxy.Settings{
		Enabled:  cfg.Proxy.Enabled,
		Hostname: cfg.Proxy.Hostname,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}
	selectors := adapter.DefaultSelectors()

	var fetcher ports.PageFetcher
	switch cfg.Shop.Fetcher {
	case "browser":
		fetcher = adapter.NewBrowserFetcher(cfg.Shop, selectors, prices, proxySettings)
	case "http":
		fetcher = adapter.NewHTTPFetcher(cfg.Shop, selectors, prices, proxySettings)
	default:
		l.Fatal("Unknown FETCHER value, expected http or browser", zap.String("fetcher", cfg.Shop.Fetcher))
	}

	submitter := adapter.NewQuickOrderSubmitter(cfg.Shop, cfg.Buyer, selectors, prices, proxySettings)

	var sinks []ports.NotificationSink
	if cfg.Email.Enabled {
		sinks = append(sinks, adapter.NewEmailSink(cfg.Email, cfg.Shop, prices))
		l.Info("Email notifications enabled", zap.String("smtp_host", cfg.Email.SMTPHost))
	}
	if cfg.Redis.URL != "" {
		redisSink, err := adapter.NewRedisSink(cfg.Redis.URL, cfg.Redis.Channel)
		if err != nil {
			l.Fatal("Failed to create redis sink", zap.Error(err))
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisSink.Ping(pingCtx); err != nil {
			cancel()
			l.Fatal("Redis is not reachable", zap.Error(err))
		}
		cancel()
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
		l.Info("Redis notifications enabled", zap.String("channel", cfg.Redis.Channel))
	}
	sink := adapter.NewMultiSink(sinks...)

	products, err := loadProducts(cfg, *art, *maxPrice)
	if err != nil {
		l.Fatal("Failed to load product list", zap.Error(err))
	}

	registry := service.NewTrackingRegistry()
	board := service.NewBoard()

	orchestrator := service.NewOrchestrator(service.TrackerOptions{
		Fetcher:          fetcher,
		Submitter:        submitter,
		Sink:             sink,
		Registry:         registry,
		Board:            board,
		PollInterval:     cfg.Watch.PollInterval,
		RenotifyInterval: cfg.Watch.RenotifyInterval,
		Prices:           prices,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := orchestrator.Run(ctx, products)
	if err != nil {
		if errors.Is(err, service.ErrNoProducts) {
			l.Fatal("Nothing to track: the product list is empty")
		}
		l.Fatal("Failed to start tracking", zap.Error(err))
	}

	srv := server.New(cfg)
	statusHandler := handler.NewStatusHandler(board)
	srv.App.Get("/products", statusHandler.ListProducts)
	srv.App.Get("/products/:id", statusHandler.GetProduct)

	go func() {
		if err := srv.Run(); err != nil {
			l.Error("Status server stopped", zap.Error(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range reports {
			// Terminal outcomes are logged by the orchestrator.
		}
	}()

	select {
	case <-ctx.Done():
		l.Info("Shutdown requested, cancelling all trackers")
		registry.CancelAll()
		<-done
	case <-done:
		l.Info("All trackers finished")
	}

	if err := srv.Shutdown(); err != nil {
		l.Error("Status server shutdown failed", zap.Error(err))
	}
}

// loadProducts builds the tracked product list, either from the
// --art/--max-price flags or from the configured products file.
func loadProducts(cfg *config.AppConfig, art int, maxPrice float64) ([]*domain.Product, error) {
	if art > 0 {
		if maxPrice <= 0 {
			return nil, errors.New("--max-price must be positive when --art is given")
		}
		return []*domain.Product{domain.NewProduct(art, decimal.NewFromFloat(maxPrice))}, nil
	}

	entries, err := config.LoadProducts(cfg.Watch.ProductsFile)
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, domain.NewProduct(e.Art, decimal.NewFromFloat(e.MaxPrice)))
	}
	return products, nil
}
