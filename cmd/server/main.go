package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"netinspect/internal/adapter"
	"netinspect/internal/config"
	"netinspect/internal/domain"
	"netinspect/internal/handler"
	"netinspect/internal/hub"
	"netinspect/internal/loader"
	"netinspect/internal/logger"
	"netinspect/internal/repository/sqlite"
	"netinspect/internal/secret"
	"netinspect/internal/service"
	"netinspect/internal/topology"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	importPath := flag.String("import", "", "Import devices from a YAML inventory before serving")
	genKey := flag.Bool("gen-key", false, "Print a new secret key and exit")
	flag.Parse()

	if *genKey {
		key, err := secret.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return
	}

	cfg, foundPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Debug:  cfg.Logging.Debug,
		Output: cfg.Logging.Output,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithComponent("main")
	if foundPath != "" {
		log.Info().Str("path", foundPath).Msg("Loaded config")
	} else {
		log.Info().Msg("No config file found, using defaults")
	}
	log.Info().Msg(cfg.Summary())

	if err := run(cfg, *importPath, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(cfg *config.Config, importPath string, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Secrets.Key == "" {
		return fmt.Errorf("no secret key configured: set secrets.key or $%s (generate one with -gen-key)", config.EnvSecretKey)
	}
	box, err := secret.NewBox(cfg.Secrets.Key)
	if err != nil {
		return fmt.Errorf("secret key: %w", err)
	}

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path, box)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	log.Info().Str("path", cfg.Database.Path).Msg("Database opened")

	if importPath != "" {
		inv, err := loader.LoadYAML(importPath)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		result, err := loader.Import(ctx, repo, inv, logger.WithComponent("loader"))
		if err != nil {
			return fmt.Errorf("import inventory: %w", err)
		}
		log.Info().
			Int("created", result.Created).
			Int("skipped", result.Skipped).
			Str("path", importPath).
			Msg("Imported inventory")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := topology.NewMetrics(reg)

	discoverer, err := newDiscoverer(cfg.Topology.Discovery)
	if err != nil {
		return err
	}

	builder := topology.NewBuilder(repo, discoverer, topology.BuilderConfig{
		DiscoveryTimeout: cfg.Topology.Discovery.Timeout.Duration(),
		Concurrency:      cfg.Topology.Discovery.Concurrency,
	},
		topology.WithBuilderLogger(logger.WithComponent("builder")),
		topology.WithBuilderMetrics(metrics),
	)

	cache := topology.NewCache(builder.Build, topology.CacheConfig{
		Enabled: cfg.Topology.Cache.IsEnabled(),
		TTL:     cfg.Topology.Cache.TTLDuration(),
	},
		topology.WithCacheLogger(logger.WithComponent("cache")),
		topology.WithCacheMetrics(metrics),
	)

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New(logger.WithComponent("hub"))
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event.Payload)
			}
		}
	}()

	topoSvc := service.NewTopologyService(cache, eventBus, logger.WithComponent("topology"))

	refresher := topology.NewRefresher(cache, cfg.Topology.Cache.RefreshInterval.Duration(),
		topology.WithRefresherLogger(logger.WithComponent("refresher")),
	)
	if err := refresher.Start(ctx); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}
	defer refresher.Stop()

	topoHandler := handler.NewTopologyHandler(topoSvc, logger.WithComponent("api"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/topology", topoHandler.GetTopology)
	mux.HandleFunc("POST /api/topology/refresh", topoHandler.RefreshTopology)
	mux.HandleFunc("GET /api/topology/status", topoHandler.GetStatus)
	mux.HandleFunc("GET /api/topology/export", topoHandler.ExportTopology)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("GET /healthz", handler.Healthz)

	httpLog := logger.WithComponent("http")
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Chain(mux, handler.Recover(httpLog), handler.CORS, handler.Logger(httpLog)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
	return nil
}

// newDiscoverer picks the neighbor source for the configured discovery mode
func newDiscoverer(cfg config.DiscoveryConfig) (adapter.Discoverer, error) {
	switch cfg.Mode {
	case config.DiscoveryModeCollector:
		return adapter.NewCollectorClient(adapter.CollectorConfig{
			BaseURL: cfg.CollectorURL,
			Timeout: cfg.Timeout.Duration(),
		}, logger.WithComponent("collector")), nil

	case config.DiscoveryModeDirect:
		router := adapter.NewRouter(logger.WithComponent("router"))

		sshCfg := adapter.DefaultSSHConfig()
		if cfg.Timeout > 0 {
			sshCfg.ConnectionTimeout = cfg.Timeout.Duration()
		}
		if err := router.Register(domain.ProtocolSSH, adapter.NewSSHDiscoverer(sshCfg, logger.WithComponent("ssh"))); err != nil {
			return nil, err
		}

		snmpCfg := adapter.DefaultSNMPConfig()
		if cfg.Timeout > 0 {
			snmpCfg.Timeout = cfg.Timeout.Duration()
		}
		if err := router.Register(domain.ProtocolSNMP, adapter.NewSNMPDiscoverer(snmpCfg, logger.WithComponent("snmp"))); err != nil {
			return nil, err
		}
		return router, nil

	default:
		return nil, fmt.Errorf("unknown discovery mode %q", cfg.Mode)
	}
}
