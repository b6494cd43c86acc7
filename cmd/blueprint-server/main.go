// Blueprint cost lookup server for MCP clients and chat bots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rsned/blueprint-cost-server/internal/blueprint/catalog"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/config"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/db"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/engine"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/httpapi"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/market"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/mcp"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/sync"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "Path to SQLite database (overrides config)")
	httpAddr := flag.String("http", "", "Serve HTTP on this address instead of MCP stdio")
	importBlueprints := flag.String("import-blueprints", "", "Import blueprints from JSON file")
	importItems := flag.String("import-items", "", "Import items from JSON file")
	importMarket := flag.String("import-market", "", "Import market snapshots from JSON file")
	pruneMarket := flag.Duration("prune-market", 0, "Delete market snapshots older than this age")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	// Setup logging
	logLevel := cfg.SlogLevel()
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Open database
	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	// Handle import commands
	if *importBlueprints != "" || *importItems != "" || *importMarket != "" || *pruneMarket > 0 {
		if err := runImports(ctx, logger, database, *importBlueprints, *importItems, *importMarket, *pruneMarket); err != nil {
			logger.Error("import failed", "error", err)
			os.Exit(1)
		}

		// If only doing imports, exit
		if flag.NArg() == 0 {
			return
		}
	}

	cat, err := catalog.Load(ctx, database, catalog.WithIconURLTemplate(cfg.IconURLTemplate))
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if cat.Len() == 0 {
		logger.Warn("catalog is empty; import blueprints with -import-blueprints")
	}

	var prices engine.PriceSource
	if cfg.Market.UseSnapshots() {
		logger.Info("using imported market snapshots")
		prices = db.NewMarketStore(database, cfg.Market.MaxAge)
	} else {
		prices = market.NewClient(cat, market.Options{
			BaseURL:   cfg.Market.BaseURL,
			Timeout:   cfg.Market.Timeout,
			CacheTTL:  cfg.Market.CacheTTL,
			CacheSize: cfg.Market.CacheSize,
			MaxAge:    cfg.Market.MaxAge,
			Logger:    logger,
		})
	}

	eng := engine.New(cat, prices,
		engine.WithLogger(logger),
		engine.WithConcurrency(cfg.Market.Concurrency),
	)

	if cfg.HTTPAddr != "" {
		if err := serveHTTP(ctx, logger, cfg.HTTPAddr, eng); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "server stopped")
		return
	}

	// Run MCP server
	server := mcp.NewServer(eng, logger)
	logger.Info("starting MCP server", "db", cfg.DBPath, "blueprints", cat.Len())
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}

func runImports(ctx context.Context, logger *slog.Logger, database *db.DB, blueprints, items, snapshots string, prune time.Duration) error {
	syncer := sync.NewSyncer(database)

	if blueprints != "" {
		logger.Info("importing blueprints", "file", blueprints)
		if err := syncer.ImportBlueprintsFromFile(ctx, blueprints); err != nil {
			return err
		}
		logger.Info("blueprints imported successfully")
	}

	if items != "" {
		logger.Info("importing items", "file", items)
		if err := syncer.ImportItemsFromFile(ctx, items); err != nil {
			return err
		}
		logger.Info("items imported successfully")
	}

	if snapshots != "" {
		logger.Info("importing market data", "file", snapshots)
		if err := syncer.ImportMarketDataFromFile(ctx, snapshots); err != nil {
			return err
		}
		logger.Info("market data imported successfully")
	}

	if prune > 0 {
		n, err := db.NewMarketStore(database, 0).PruneOldSnapshots(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		logger.Info("pruned market snapshots", "deleted", n)
	}
	return nil
}

func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, eng *engine.Engine) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(eng, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
