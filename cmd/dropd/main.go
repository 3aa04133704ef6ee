package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"tokendrop/cmd/internal/node"
	"tokendrop/config"
	"tokendrop/core/genesis"
	"tokendrop/gateway/middleware"
	"tokendrop/gateway/routes"
	"tokendrop/observability/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	listenFlag := flag.String("listen", "", "HTTP listen address (overrides config ListenAddress)")
	logRequests := flag.Bool("log-requests", false, "Log every HTTP request")
	allowMigrate := flag.Bool("allow-migrate", false, "Start even when the stored schema version differs")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *listenFlag != "" {
		cfg.ListenAddress = *listenFlag
	}
	if *genesisFlag != "" {
		cfg.GenesisFile = *genesisFlag
	}
	if *allowMigrate {
		cfg.AllowMigrate = true
	}

	logger, logCloser, err := logging.Setup("dropd", cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	n, err := node.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := importGenesis(n, cfg.GenesisFile, logger); err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		routes.ClaimRateLimitKey: {RatePerSecond: cfg.RateLimit.RatePerSecond, Burst: cfg.RateLimit.Burst},
	}, cfg.RateLimit.MaxClients, logger)
	handler := routes.New(routes.Config{
		Engine:        n.Engine,
		RateLimiter:   limiter,
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{LogRequests: *logRequests}, logger),
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dropd listening", "address", cfg.ListenAddress, "dataDir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func importGenesis(n *node.Node, path string, logger *slog.Logger) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	exists, err := n.HasCampaign()
	if err != nil {
		return err
	}
	if exists {
		logger.Info("campaign already present, skipping genesis import", "genesis", path)
		return nil
	}
	spec, err := genesis.LoadSpec(path)
	if err != nil {
		return err
	}
	summary, err := genesis.Apply(n.Engine, spec, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("import genesis: %w", err)
	}
	logger.Info("genesis imported",
		"campaign", summary.Campaign.Name,
		"allocations", summary.Allocations,
		"blacklisted", summary.Blacklisted)
	return nil
}
