package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"road-monitor/internal/auth"
	"road-monitor/internal/config"
	"road-monitor/internal/pipeline"
	"road-monitor/internal/risk"
	"road-monitor/internal/store"
	"road-monitor/internal/timeutil"
	monitorhttp "road-monitor/internal/transport/http"
	"road-monitor/internal/transport/ws"
	"road-monitor/internal/weather"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisStore, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisStore.Close()

	pgStore, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pgStore.Close()

	riskClient := risk.NewClient(cfg.RiskBaseURL, cfg.UpstreamTimeout)
	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.UpstreamTimeout)

	out := pipeline.NewDispatcher(cfg.StateChannelSize, cfg.FeedChannelSize, cfg.AuditChannelSize)
	mgr := pipeline.NewManager(timeutil.RealClock{}, riskClient, weatherClient, out)

	hub := ws.NewHub()
	go hub.Run()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pipeline.NewStatePublisher(out.StateChan, redisStore, hub).Run(gctx)
		return nil
	})
	g.Go(func() error {
		pipeline.NewFeedPublisher(out.FeedChan, redisStore, hub).Run(gctx)
		return nil
	})
	g.Go(func() error {
		pipeline.NewAuditWriter(out.AuditChan, pgStore).Run(gctx)
		return nil
	})

	authn := auth.NewAuthenticator(cfg, redisStore)
	srv := monitorhttp.NewServer(mgr, hub, monitorhttp.NewAuthMiddleware(authn))

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g.Go(func() error {
		log.Printf("road monitor listening on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		mgr.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("shutdown error: %v", err)
		os.Exit(1)
	}
	log.Println("road monitor stopped")
}
