// Command subauthd serves the subAuth HTTP API.
//
// Flags:
//
//	-env <path>     .env file to load before reading the environment
//	-sweep-once     remove expired refresh sessions and exit
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/internal/config"
	"github.com/MrEthical07/subAuth/internal/conn"
	"github.com/MrEthical07/subAuth/internal/httpapi"
	"github.com/MrEthical07/subAuth/internal/obs"
	"github.com/MrEthical07/subAuth/internal/sweep"
	"github.com/MrEthical07/subAuth/metrics/export/prometheus"
	"github.com/gorilla/mux"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	envFile := flag.String("env", ".env", "path to a .env file")
	sweepOnce := flag.Bool("sweep-once", false, "remove expired sessions and exit")
	flag.Parse()

	config.LoadDotEnv(*envFile)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conns, err := conn.Open(openCtx, conn.Options{
		DatabaseURL:     cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
	})
	cancel()
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conns.Close()

	identities := identity.NewPGStore(conns.DB())
	audits := audit.NewPGStore(conns.DB())
	if err := identities.EnsureSchema(ctx); err != nil {
		log.Fatalf("identity schema: %v", err)
	}
	if err := audits.EnsureSchema(ctx); err != nil {
		log.Fatalf("audit schema: %v", err)
	}

	engine, err := subAuth.New().
		WithConfig(cfg.Engine).
		WithRedis(conns.Redis()).
		WithIdentityStore(identities).
		WithAuditStore(audits).
		Build()
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer engine.Close()

	for _, w := range cfg.Engine.Lint() {
		log.Printf("subAuth: config %s [%s]: %s", w.Code, w.Severity, w.Message)
	}

	worker := sweep.NewWorker(engine, cfg.SweepInterval, time.Minute)
	if *sweepOnce {
		n := worker.RunOnce(ctx)
		log.Printf("subAuth: sweep-once removed %d sessions", n)
		return
	}
	go worker.Run(ctx)

	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewPrometheusExporter(engine),
	)
	obs.RegisterBuildInfo(reg, version, commit)
	httpMetrics := obs.NewHTTPMetrics(reg)

	api := httpapi.New(engine, httpapi.Options{
		Version:           version,
		Ready:             conns.IsReady,
		Metrics:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Wrap:              []mux.MiddlewareFunc{httpMetrics.Instrument, obs.RequestLog},
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		TrustForwardedFor: config.GetEnvAsBool("TRUST_FORWARDED_FOR", false),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("subAuth: subauthd %s listening on %s", version, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("subAuth: shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("subAuth: shutdown: %v", err)
	}
}
