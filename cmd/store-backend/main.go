package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/cart"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/catalog"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/config"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/db"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/events"
	httpapi "github.com/jathuRSHAN/Skyup-Ecommerce/internal/http"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/order"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payhere"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/user"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN); err != nil {
			logger.Fatal().Err(err).Msg("db migrate")
		}
	}

	// --- AMQP (optional) ---
	var publisher order.Publisher
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("amqp connect")
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatal().Err(err).Msg("amqp publisher")
		}
		defer pub.Close()
		publisher = pub
	}

	// --- wiring ---
	tokens := auth.NewTokenMaker(cfg.TokenSecret, cfg.TokenTTL)
	gateway := payhere.New(payhere.Config{
		MerchantID:     cfg.PayHere.MerchantID,
		MerchantSecret: cfg.PayHere.MerchantSecret,
		CheckoutURL:    cfg.PayHere.CheckoutURL,
		ReturnURL:      cfg.PayHere.ReturnURL,
		CancelURL:      cfg.PayHere.CancelURL,
		NotifyURL:      cfg.PayHere.NotifyURL,
		Currency:       cfg.PayHere.Currency,
	})

	userRepo := user.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	cartRepo := cart.NewRepository(pool)
	paymentRepo := payment.NewRepository(pool)
	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo, userRepo, gateway, publisher, logger)

	handlers := httpapi.Handlers{
		Auth:    httpapi.NewAuthHandler(userRepo, tokens),
		Catalog: httpapi.NewCatalogHandler(catalogRepo),
		Cart:    httpapi.NewCartHandler(cartRepo, catalogRepo),
		Order:   httpapi.NewOrderHandler(orderSvc),
		Payment: httpapi.NewPaymentHandler(orderSvc, paymentRepo, logger),
	}
	router := httpapi.NewRouter(handlers, tokens, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("fatal error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}
