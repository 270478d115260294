package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pharmalens/backend/config"
	"github.com/pharmalens/backend/internal/infrastructure/cache"
	"github.com/pharmalens/backend/internal/infrastructure/sqlite"
	"github.com/pharmalens/backend/internal/infrastructure/xlsx"
	"github.com/pharmalens/backend/internal/usecase"
	"github.com/pharmalens/backend/pkg/logger"
)

var (
	filePath  = flag.String("file", "", "Excel workbook to import (required)")
	sheetName = flag.String("sheet", "", "Sheet to read (default first sheet)")
	headerRow = flag.Int("header-row", xlsx.DefaultHeaderRow, "1-based row holding column titles")
	dbPath    = flag.String("db", "", "SQLite store path (default store.path from config)")
	table     = flag.String("table", "", "Products table (default store.products_table from config)")
	dryRun    = flag.Bool("dry-run", false, "Parse and report without writing")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Options{Environment: cfg.Server.Environment, Level: cfg.Log.Level})

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Str("file", *filePath).Msg("import failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	f, err := os.Open(*filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := xlsx.ReadProducts(f, xlsx.ReadOptions{Sheet: *sheetName, HeaderRow: *headerRow})
	if err != nil {
		return err
	}

	report := struct {
		*xlsx.ImportResult
		Parsed   int  `json:"parsed"`
		Imported int  `json:"imported"`
		DryRun   bool `json:"dryRun"`
	}{ImportResult: result, Parsed: len(result.Products), DryRun: *dryRun}

	if !*dryRun && len(result.Products) > 0 {
		n, err := write(ctx, cfg, result)
		if err != nil {
			return err
		}
		report.Imported = n
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func write(ctx context.Context, cfg *config.Config, result *xlsx.ImportResult) (int, error) {
	storeCfg := sqlite.Config{
		Path:            cfg.Store.Path,
		ProductsTable:   cfg.Store.ProductsTable,
		CreateIfMissing: true,
		BusyTimeout:     cfg.Store.BusyTimeout,
	}
	if *dbPath != "" {
		storeCfg.Path = *dbPath
	}
	if *table != "" {
		storeCfg.ProductsTable = *table
	}

	store, err := sqlite.Open(ctx, storeCfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return 0, err
	}

	// A server with a memory cache notices this commit through the store's data
	// version. A shared redis entry is dropped here so no server serves it again.
	var invalidator usecase.Invalidator
	if cfg.Cache.Type == "redis" {
		c, err := cache.New(ctx, cache.Options{Type: cfg.Cache.Type, RedisURL: cfg.Cache.RedisURL})
		if err != nil {
			logger.Warn().Err(err).Msg("cache unreachable, servers reload on their next data version check")
		} else {
			defer c.Close()
			invalidator = usecase.NewCatalogService(store, c, usecase.CatalogServiceConfig{})
		}
	}

	return usecase.NewImportService(store, invalidator).Import(ctx, result.Products)
}
