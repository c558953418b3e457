package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pa-review-service/internal/config"
	"pa-review-service/internal/faults"
	"pa-review-service/internal/server"
	"pa-review-service/internal/service"
	"pa-review-service/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "pareview.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	st := store.New(store.Options{
		ListSize:  cfg.Store.ListSize,
		SLAWindow: cfg.Store.SLAWindow(),
	})
	st.Initialize()
	log.Printf("store initialized with %d worklist cases", len(st.List()))

	injector := faults.NewRandom(faults.Config{
		FailureRate: cfg.Faults.FailureRate,
		MinLatency:  cfg.Faults.MinLatency(),
		MaxLatency:  cfg.Faults.MaxLatency(),
		Seed:        cfg.Faults.Seed,
	})
	log.Printf("fault injector: p(fail)=%.2f latency=[%s, %s]",
		cfg.Faults.FailureRate, cfg.Faults.MinLatency(), cfg.Faults.MaxLatency())

	hub := server.NewAuditHub()
	svc := service.New(st, injector, service.Options{
		MutatingRoles: cfg.MutatingRoles,
		Sink:          hub,
	})

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
	}, svc, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server exited: %v", err)
		}
	case <-ctx.Done():
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("shutdown: %v", err)
		}
	}
}
