package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"medmarket/auth"
	"medmarket/config"
	"medmarket/customer"
	"medmarket/db"
	"medmarket/listing"
	"medmarket/notify"
	"medmarket/vendor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	outbox := notify.NewOutboxWriter()

	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)

	vendorRepo := vendor.NewRepository(pool)
	vendorSvc := vendor.NewService(pool, vendorRepo).WithOutbox(outbox)

	listingRepo := listing.NewRepository(pool)
	listingSvc := listing.NewService(pool, listingRepo, outbox)

	proposalRepo := listing.NewProposalRepository(pool)
	proposalSvc := listing.NewProposalService(pool, proposalRepo, listingRepo, vendorRepo).
		WithOutbox(outbox, cfg.AutoNotify)

	solvedSvc := listing.NewSolvedService(listingRepo, cfg.SolvedListingsLimit)

	customerRepo := customer.NewRepository(pool)
	customerSvc := customer.NewService(customerRepo)

	server := &Server{
		authService:     authSvc,
		listingService:  listingSvc,
		proposalService: proposalSvc,
		solvedService:   solvedSvc,
		vendorService:   vendorSvc,
		customerService: customerSvc,
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
