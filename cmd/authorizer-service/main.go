package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tenantgate/internal/authorizer"
	"tenantgate/internal/broker"
	"tenantgate/internal/keyset"
	"tenantgate/internal/tenantconfig"
	"tenantgate/internal/token"
	"tenantgate/internal/usage"
	"tenantgate/pkg/config"
	"tenantgate/pkg/db"
	"tenantgate/pkg/logger"
	"tenantgate/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var prov tenantconfig.Provider
	switch {
	case pool != nil:
		prov = tenantconfig.NewPostgresProvider(pool, log)
		if err := tenantconfig.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("tenant config schema", "err", err)
		}
		if err := tenantconfig.SeedFromEnv(context.Background(), pool, os.Getenv("TENANT_CONFIG_SEED_JSON")); err != nil {
			log.Warnw("tenant config seed", "err", err)
		}
	case cfg.ControlPlaneURL != "":
		var err error
		prov, err = tenantconfig.NewHTTPProvider(cfg.ControlPlaneURL, log)
		if err != nil {
			log.Fatalw("control plane provider", "err", err)
		}
	default:
		prov = tenantconfig.NewMemoryProviderFromEnv(log)
	}

	cb, err := broker.NewFromEnv(context.Background())
	if err != nil {
		log.Fatalw("credential broker", "err", err)
	}

	keys := keyset.New(cfg.JWKSTTL)
	validator := token.NewValidator(
		token.WithClockSkew(cfg.ClockSkew),
		token.WithClaimPaths(cfg.TenantIDClaim, cfg.RoleClaim),
	)

	opts := []authorizer.ServiceOption{
		authorizer.WithMetrics(authorizer.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if rdb != nil {
		opts = append(opts, authorizer.WithUsageGate(usage.NewStore(rdb, log)))
	}
	if cfg.RegoModulePath != "" {
		gate, err := authorizer.NewRegoGateFromFile(context.Background(), cfg.RegoModulePath)
		if err != nil {
			log.Fatalw("rego gate", "err", err)
		}
		opts = append(opts, authorizer.WithRegoGate(gate))
	}

	svc := authorizer.NewService(authorizer.Config{
		IssuerURL:          cfg.IssuerURL,
		Audience:           cfg.Audience,
		AssumeRoleArn:      cfg.AssumeRoleArn,
		SessionDurationSec: cfg.SessionDurationSec,
		WildcardResource:   cfg.WildcardResource,
	}, keys, validator, prov, cb, log, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(cfg, "tenantgate-authorizer"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	authorizer.RegisterHTTP(r, svc)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("authorizer-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("authorizer-service stopped")
}
