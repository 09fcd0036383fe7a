// Package main is the Noto CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/noto/internal/cli"
	"github.com/hyperjump/noto/internal/config"
	"github.com/hyperjump/noto/internal/discover"
	"github.com/hyperjump/noto/internal/embedding"
	"github.com/hyperjump/noto/internal/extract"
	"github.com/hyperjump/noto/internal/indexer"
	"github.com/hyperjump/noto/internal/keyword"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/search"
	"github.com/hyperjump/noto/internal/server"
	"github.com/hyperjump/noto/internal/storage"
	"github.com/hyperjump/noto/internal/vector"
	"github.com/hyperjump/noto/internal/watcher"
	"github.com/hyperjump/noto/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/noto/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "noto server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
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
	case "server":
		runServer()
	case "build":
		runBuild()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "notebooks":
		runNotebooks()
	case "version", "--version", "-v":
		fmt.Printf("noto version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backup_root", cfg.Backup.Root),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.Builder.LoadPersisted(context.Background()); err != nil {
		logger.Fatal("Failed to load persisted index", zap.Error(err))
	}

	srv := server.NewServer(
		components.Engine,
		components.Builder,
		components.Discoverer,
		components.Holder,
		cfg,
		logger,
	)

	// Bring the index up to date with whatever the backup tool wrote while we
	// were down, without delaying server startup.
	go func() {
		if _, err := srv.Rebuild(context.Background()); err != nil {
			logger.Warn("startup rebuild failed", zap.Error(err))
		}
	}()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled {
		watchOpts := []watcher.WatcherOption{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(cfg.Backup.Root, func() {
			if _, err := srv.Rebuild(context.Background()); err != nil && err != indexer.ErrBuildInProgress {
				logger.Warn("watch rebuild failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Builder.LoadPersisted(ctx); err != nil {
		logger.Fatal("Failed to load persisted index", zap.Error(err))
	}
	files, err := components.Discoverer.Discover(cfg.Backup.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discover failed: %v\n", err)
		os.Exit(1)
	}
	stats, err := components.Builder.Build(ctx, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteBuildStats(os.Stdout, stats, format)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = search the on-disk index directly)`)
	mode := fs.String("mode", "semantic", "search mode: semantic, exact, or keyword")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	minScore := fs.Float64("min-score", 0, "minimum semantic similarity (0 = default, negative disables)")
	fuzzy := fs.Bool("fuzzy", false, "typo tolerance in keyword mode")
	notebook := fs.String("notebook", "", "restrict results to one notebook")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: noto search [flags] <query>\n\n")
		fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:        queryStr,
		Mode:         models.SearchMode(*mode),
		TopK:         *topK,
		MinScore:     *minScore,
		FuzzyEnabled: *fuzzy,
		Notebook:     *notebook,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		response, err = searchDirect(*configPath, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// searchDirect loads the persisted index and searches it in-process, for use
// when the server is not running.
func searchDirect(configPath string, query *models.SearchQuery) (*models.SearchResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Builder.LoadPersisted(ctx); err != nil {
		return nil, err
	}
	return components.Engine.Search(ctx, query)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("entries:     %v   # indexed pages\n", status["entries"])
	fmt.Printf("dimensions:  %v   # embedding dimensionality\n", status["dimensions"])
	fmt.Printf("notebooks:   %v\n", status["notebooks"])
	if v, ok := status["disk_usage_bytes"]; ok {
		fmt.Printf("disk_usage:  %v bytes\n", v)
	}
}

func runNotebooks() {
	fs := flag.NewFlagSet("notebooks", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/notebooks")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Notebooks []vector.GroupCount `json:"notebooks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	for _, nb := range out.Notebooks {
		fmt.Printf("%s\t%d pages\n", nb.Name, nb.Pages)
	}
}

// Components holds initialized services.
type Components struct {
	Store      storage.Store
	Embedder   embedding.Embedder
	Keyword    keyword.Index
	Holder     *vector.Holder
	Builder    *indexer.Builder
	Engine     *search.Engine
	Discoverer *discover.Discoverer
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.MatrixPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using deterministic mock",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	holder := vector.NewHolder()
	builderOpts := []indexer.BuilderOption{indexer.WithKeywordIndex(keywordIndex)}
	if debug && logger != nil {
		builderOpts = append(builderOpts, indexer.WithLogger(logger))
	}
	builder := indexer.NewBuilder(holder, store, embedder, extract.NewExtractor(), builderOpts...)
	engine := search.NewEngine(holder, embedder, keywordIndex, &cfg.Search)

	return &Components{
		Store:      store,
		Embedder:   embedder,
		Keyword:    keywordIndex,
		Holder:     holder,
		Builder:    builder,
		Engine:     engine,
		Discoverer: discover.New(cfg.Backup.Extensions),
	}, nil
}

func printUsage() {
	fmt.Println(`noto - semantic search over notebook backups

Usage:
  noto server [flags]             Start the HTTP server
  noto build [flags]              Rebuild the index from the backup snapshot
  noto search [flags] <query>     Search indexed pages
  noto status [flags]             Show index status
  noto notebooks [flags]          List indexed notebooks
  noto version                    Show version
  noto help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/noto/config.yaml)
  --debug            Enable debug logging

Build Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to search the on-disk index directly.
  --config string    Config file path (direct mode)
  --mode string      semantic (default), exact, or keyword
  --top-k int        Number of results
  --min-score float  Minimum semantic similarity (negative disables the cutoff)
  --fuzzy            Typo tolerance in keyword mode
  --notebook string  Restrict results to one notebook
  --output string    text, compact, or json

Examples:
  noto server
  noto build
  noto search kubernetes ingress notes
  noto search --mode exact "error 0x80042001"
  noto search --mode keyword --fuzzy kubernets
  noto search --notebook Work --top-k 5 quarterly planning
  noto status --output json`)
}
