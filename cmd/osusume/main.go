// Package main is the Osusume CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/preference"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/similarity"
	"github.com/hyperjump/osusume/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/osusume/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "similar":
		runSimilar()
	case "predict":
		runPredict()
	case "recommend":
		runRecommend()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) (configPath *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, debug
}

func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	return cfg, logger
}

// components holds the opened stores and query stages.
type components struct {
	index       *indexer.Index
	prefs       *preference.SQLiteStore
	finder      *recommend.Finder
	predictor   *recommend.Predictor
	recommender *recommend.Recommender
}

func (c *components) Close() {
	_ = c.prefs.Close()
	_ = c.index.Close()
}

// initComponents opens the built index and the preference store, importing
// the ratings CSV when one is configured (a no-op once loaded).
func initComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	ix, err := indexer.Open(cfg.Storage.IndexPath)
	if err != nil {
		return nil, err
	}
	prefs, err := preference.NewSQLiteStore(cfg.Storage.RatingsDBPath)
	if err != nil {
		_ = ix.Close()
		return nil, err
	}
	if cfg.Data.RatingsPath != "" {
		n, err := prefs.ImportCSV(ctx, cfg.Data.RatingsPath)
		if err != nil {
			_ = prefs.Close()
			_ = ix.Close()
			return nil, err
		}
		if n > 0 {
			logger.Info("ratings imported", zap.Int("count", n))
		}
	}
	engine := similarity.NewEngine(ix.Catalog, ix.Terms)
	finder := recommend.NewFinder(ix.Catalog, engine, logger)
	predictor := recommend.NewPredictor(prefs, finder, cfg.Recommend.NeighborhoodSize)
	recommender := recommend.NewRecommender(prefs, predictor, logger)
	return &components{
		index:       ix,
		prefs:       prefs,
		finder:      finder,
		predictor:   predictor,
		recommender: recommender,
	}, nil
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	tagsPath := fs.String("tags", "", "tag CSV path (overrides config data.tags_path)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	source := cfg.Data.TagsPath
	if *tagsPath != "" {
		source = *tagsPath
	}
	if source == "" {
		fmt.Println("No tag source: set data.tags_path in config or pass -tags")
		os.Exit(1)
	}

	ctx := context.Background()
	if err := indexer.Build(ctx, source, cfg.Storage.IndexPath, logger); err != nil {
		logger.Error("index build failed", zap.Error(err))
		os.Exit(1)
	}
	if cfg.Data.RatingsPath != "" {
		prefs, err := preference.NewSQLiteStore(cfg.Storage.RatingsDBPath)
		if err != nil {
			logger.Error("failed to open ratings store", zap.Error(err))
			os.Exit(1)
		}
		defer prefs.Close()
		n, err := prefs.ImportCSV(ctx, cfg.Data.RatingsPath)
		if err != nil {
			logger.Error("ratings import failed", zap.Error(err))
			os.Exit(1)
		}
		if n > 0 {
			logger.Info("ratings imported", zap.Int("count", n))
		}
	}
	fmt.Println("Build complete.")
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	itemID := fs.Int64("item", 0, "seed item ID")
	n := fs.Int("n", 0, "neighborhood size (default: recommend.neighborhood_size)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	size := cfg.Recommend.NeighborhoodSize
	if *n > 0 {
		size = *n
	}
	items, err := c.finder.SimilarItems(ctx, *itemID, size)
	if err != nil {
		logger.Error("similar items failed", zap.Error(err))
		os.Exit(1)
	}
	tags := make(map[int64]string, len(items))
	for _, item := range items {
		if doc, derr := c.index.Catalog.GetItemDocument(ctx, item.ItemID); derr == nil {
			tags[item.ItemID] = doc.Tags
		}
	}
	_ = cli.WriteScoredItems(os.Stdout, items, tags, cli.ParseFormat(*format))
}

func runPredict() {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	userID := fs.Int64("user", 0, "user ID")
	itemID := fs.Int64("item", 0, "item ID")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	pred, err := c.predictor.Predict(ctx, *userID, *itemID)
	if err != nil {
		logger.Error("prediction failed", zap.Error(err))
		os.Exit(1)
	}
	_ = cli.WritePrediction(os.Stdout, pred, cli.ParseFormat(*format))
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	userID := fs.Int64("user", 0, "user ID")
	n := fs.Int("n", 0, "list size (default: recommend.default_top_n)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	topN := cfg.Recommend.DefaultTopN
	if *n > 0 {
		topN = *n
	}
	if max := cfg.Recommend.MaxTopN; max > 0 && topN > max {
		topN = max
	}
	items, err := c.recommender.Recommend(ctx, *userID, topN)
	if err != nil {
		logger.Error("recommendation failed", zap.Error(err))
		os.Exit(1)
	}
	tags := make(map[int64]string, len(items))
	for _, item := range items {
		if doc, derr := c.index.Catalog.GetItemDocument(ctx, item.ItemID); derr == nil {
			tags[item.ItemID] = doc.Tags
		}
	}
	_ = cli.WriteScoredItems(os.Stdout, items, tags, cli.ParseFormat(*format))
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	if cfg.Data.TagsPath != "" {
		if err := indexer.Build(ctx, cfg.Data.TagsPath, cfg.Storage.IndexPath, logger); err != nil {
			logger.Error("index build failed", zap.Error(err))
			os.Exit(1)
		}
	}
	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	srv := server.NewServer(c.finder, c.predictor, c.recommender, c.index.Catalog, c.prefs, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	docs, err := c.index.Catalog.CountItemDocuments(ctx)
	if err != nil {
		fmt.Printf("Failed to count documents: %v\n", err)
		os.Exit(1)
	}
	ratings, err := c.prefs.CountRatings(ctx)
	if err != nil {
		fmt.Printf("Failed to count ratings: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Item documents: %d\nRatings:        %d\nIndex path:     %s\n",
		docs, ratings, cfg.Storage.IndexPath)
}

func printUsage() {
	fmt.Print(`osusume - tag-based item recommender

Usage:
  osusume build      [-config path] [-tags file]        build the tag index (no-op if built)
  osusume similar    -item ID [-n N] [-format text|json] items most similar to an item
  osusume predict    -user ID -item ID [-format ...]     predict a user's rating for an item
  osusume recommend  -user ID [-n N] [-format ...]       top-N recommendations for a user
  osusume server     [-config path]                      run the HTTP API server
  osusume status     [-config path]                      show index and ratings counts
  osusume version                                        print version
`)
}
