// Package main is the wikisearch CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/wikisearch/internal/cli"
	"github.com/hyperjump/wikisearch/internal/config"
	"github.com/hyperjump/wikisearch/internal/extract"
	"github.com/hyperjump/wikisearch/internal/fetcher"
	"github.com/hyperjump/wikisearch/internal/fileid"
	"github.com/hyperjump/wikisearch/internal/indexer"
	"github.com/hyperjump/wikisearch/internal/keyword"
	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/search"
	"github.com/hyperjump/wikisearch/internal/server"
	"github.com/hyperjump/wikisearch/internal/storage"
	"github.com/hyperjump/wikisearch/internal/watcher"
	"github.com/hyperjump/wikisearch/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/wikisearch/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default and it does not exist,
// config.yaml in the current directory is used if present; when neither exists the
// built-in defaults apply. Returns the config and the path it belongs to (for saving).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if cwd, cwdErr := os.Getwd(); cwdErr == nil {
				fallback := filepath.Join(cwd, "config.yaml")
				if _, statErr := os.Stat(fallback); statErr == nil {
					path = fallback
				} else {
					cfg := &config.Config{}
					config.ApplyDefaults(cfg)
					return cfg, "", nil
				}
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
	case "search":
		runSearch()
	case "terms":
		runTerms()
	case "index":
		runIndex()
	case "fetch":
		runFetch()
	case "delete":
		runDelete()
	case "reindex":
		runReindex()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("wikisearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// openComponents loads the config and initializes local storage and indices for
// commands that work without a server.
func openComponents(configPath string, debugFlag bool) (*Components, *config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return components, cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	components, cfg, resolvedConfigPath, logger := openComponents(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("index_backend", cfg.Storage.IndexBackend),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	watchSvc := watcher.New(components.Indexer, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), watcher.WithLogger(logger))
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx, cfg.Watch.Directories...); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		server.WithFetcher(components.Fetcher),
		server.WithWatch(watchSvc, resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	query, opts, err := parseSearchArgs(os.Args[2:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}

	var response *models.SearchResponse
	if opts.serverURL != "" {
		// Use the HTTP API when the server is running (avoids index lock conflicts).
		response, err = searchViaHTTP(opts.serverURL, query)
	} else {
		components, _, _, logger := openComponents(opts.configPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), query)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, opts.format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runTerms() {
	fs := flag.NewFlagSet("terms", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:], map[string]bool{"config": true, "server": true, "output": true}))
	if fs.NArg() != 1 {
		fatalf("Usage: wikisearch terms [flags] <term>")
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	term, err := models.NormalizeTerm(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	if term == "" {
		fatalf("Term must contain a letter or digit")
	}

	var (
		entries     []search.Entry
		suggestions []string
	)
	if *serverURL != "" {
		reply, err := termViaHTTP(*serverURL, term)
		if err != nil {
			fatalf("Lookup failed: %v", err)
		}
		entries = reply.Results
		suggestions = reply.Suggestions
	} else {
		components, _, _, logger := openComponents(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		result, err := components.Engine.Lookup(context.Background(), term)
		if err != nil {
			fatalf("Lookup failed: %v", err)
		}
		entries = result.Ranked()
		if len(entries) == 0 {
			suggestions = components.Engine.Suggest(term)
		}
	}
	if err := cli.WriteTermResults(os.Stdout, term, entries, suggestions, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatalf("Usage: wikisearch index [flags] <file-or-directory>")
	}
	path := fs.Arg(0)

	components, cfg, _, logger := openComponents(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fatalf("Failed to stat path: %v", err)
	}
	if info.IsDir() {
		stats, err := components.Indexer.IndexDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fatalf("Indexing directory failed: %v", err)
		}
		fmt.Printf("Indexed %d file(s) from %s (%d unchanged)\n", stats.Indexed, path, stats.Skipped)
		return
	}
	// Single file: no extension filter
	if _, err := components.Indexer.IndexFile(ctx, path, nil); err != nil {
		fatalf("Indexing failed: %v", err)
	}
	absPath, _ := filepath.Abs(path)
	fmt.Printf("Document indexed successfully: %s\n", fileid.FileDocID(absPath))
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = fetch and index locally)")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatalf("Usage: wikisearch fetch [flags] <url>...")
	}

	if *serverURL != "" {
		for _, pageURL := range fs.Args() {
			reply, err := fetchViaHTTP(*serverURL, pageURL)
			if err != nil {
				fatalf("Fetch %s failed: %v", pageURL, err)
			}
			fmt.Printf("Indexed %s (%s)\n", reply.ID, reply.Title)
		}
		return
	}

	components, _, _, logger := openComponents(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()
	for _, pageURL := range fs.Args() {
		input, err := components.Fetcher.Fetch(ctx, pageURL)
		if err != nil {
			fatalf("Fetch %s failed: %v", pageURL, err)
		}
		doc, err := components.Indexer.IndexDocument(ctx, input)
		if err != nil {
			fatalf("Indexing %s failed: %v", pageURL, err)
		}
		fmt.Printf("Indexed %s (%s)\n", doc.ID, doc.Title)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: wikisearch watch <add|remove|list> [path]")
		fmt.Println("  wikisearch watch add <path>     Add directory to watch")
		fmt.Println("  wikisearch watch remove <path>  Remove directory from watch")
		fmt.Println("  wikisearch watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[3:])
	endpoint := *serverURL + "/api/v1/watch/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fatalf("Usage: wikisearch watch add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := apiCall(http.MethodPost, endpoint, map[string]interface{}{"path": path, "sync": true}, http.StatusCreated, nil); err != nil {
			fatalf("Add failed: %v", err)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: wikisearch watch remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := apiCall(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil, http.StatusOK, nil); err != nil {
			fatalf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := apiCall(http.MethodGet, endpoint, nil, http.StatusOK, &out); err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatalf("Usage: wikisearch delete [flags] <document-id>")
	}
	docID := fs.Arg(0)

	components, _, _, logger := openComponents(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Indexer.DeleteDocument(context.Background(), docID); err != nil {
		fatalf("Deletion failed: %v", err)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	components, cfg, _, logger := openComponents(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	stats, err := components.Indexer.Reindex(context.Background())
	if err != nil {
		fatalf("Reindex failed after %d document(s): %v", stats.Indexed, err)
	}
	fmt.Printf("Reindexed %d document(s) into the %s index, removed %d stale index entries\n",
		stats.Indexed, cfg.Storage.IndexBackend, stats.Removed)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = res
	} else {
		components, cfg, _, logger := openComponents(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		docCount, err := components.Storage.CountDocuments(context.Background())
		if err != nil {
			fatalf("Count documents failed: %v", err)
		}
		status = &statusResponse{
			Documents:        docCount,
			WatchDirectories: cfg.Watch.Directories,
			Config: map[string]interface{}{
				"index_backend": cfg.Storage.IndexBackend,
				"database_path": cfg.Storage.DatabasePath,
				"index_path":    cfg.Storage.IndexPath,
			},
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.IndexPath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "text":
		fmt.Printf("documents:          %d   # count of indexed documents\n", status.Documents)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # storage + index on disk\n", *status.DiskUsageBytes)
		}
		for _, d := range status.WatchDirectories {
			fmt.Printf("watching:           %s\n", d)
		}
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"index_backend", "database_path", "index_path"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-19s %v\n", key+":", v)
				}
			}
		}
	default:
		fatalf("Unknown output format %q; use text or json", *outputFormat)
	}
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	TermIndex keyword.TermIndex
	Engine    *search.Engine
	Indexer   *indexer.Indexer
	Fetcher   *fetcher.Fetcher
}

// Close releases storage and the term index.
func (c *Components) Close() {
	if c.TermIndex != nil {
		_ = c.TermIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	termIndex, err := keyword.NewTermIndex(cfg.Storage.IndexBackend, cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize term index: %w", err)
	}
	logger.Debug("term index opened",
		zap.String("backend", cfg.Storage.IndexBackend),
		zap.String("path", cfg.Storage.IndexPath),
	)

	componentLogger := zap.NewNop()
	if debug {
		componentLogger = logger
	}
	engineOpts := []search.EngineOption{search.WithLogger(componentLogger)}
	if !cfg.Spell.Disabled {
		speller := keyword.NewSpellChecker(termIndex,
			keyword.WithMaxDistance(cfg.Spell.MaxDistance),
			keyword.WithMaxSuggestions(cfg.Spell.MaxSuggestions),
		)
		engineOpts = append(engineOpts, search.WithSuggester(speller))
	}
	extractor := extract.NewExtractor()
	return &Components{
		Storage:   store,
		TermIndex: termIndex,
		Engine:    search.NewEngine(termIndex, store, engineOpts...),
		Indexer:   indexer.NewIndexer(store, termIndex, extractor, indexer.WithLogger(componentLogger)),
		Fetcher:   fetcher.New(cfg.Fetch, extractor, fetcher.WithLogger(componentLogger)),
	}, nil
}

func printUsage() {
	fmt.Println(`wikisearch - boolean term search over wiki pages and local documents

Usage:
  wikisearch server [flags]            Start the HTTP server
  wikisearch search [flags] <term>...  Search documents (AND by default)
  wikisearch terms [flags] <term>      Show the documents containing one term
  wikisearch index [flags] <path>      Index a file or directory
  wikisearch fetch [flags] <url>...    Fetch pages and index them
  wikisearch delete [flags] <id>       Delete a document
  wikisearch reindex [flags]           Rebuild the term index from stored documents
  wikisearch status [flags]            Show storage/index status
  wikisearch watch <add|remove|list>   Manage watched directories
  wikisearch version                   Show version
  wikisearch help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/wikisearch/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --or               Match any term instead of all terms
  --not string       Exclude documents containing the term (repeatable)
  --output string    Output format: text, compact, or json (default: text)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to search local storage.
  --config string    Config file path (for direct storage mode)

Fetch/Status/Terms Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to work locally.
  --config string    Config file path (for direct storage mode)

Results are printed from the lowest to the highest score.

Examples:
  wikisearch server
  wikisearch fetch https://en.wikipedia.org/wiki/Java_(programming_language)
  wikisearch search java programming
  wikisearch search --or java python --not coffee
  wikisearch terms java
  wikisearch index ~/notes
  wikisearch status --output json`)
}
