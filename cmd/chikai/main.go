// Package main is the Chikai CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/chikai/internal/collections"
	"github.com/hyperjump/chikai/internal/config"
	"github.com/hyperjump/chikai/internal/documents"
	"github.com/hyperjump/chikai/internal/embedding"
	"github.com/hyperjump/chikai/internal/extract"
	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/search"
	"github.com/hyperjump/chikai/internal/server"
	"github.com/hyperjump/chikai/internal/vector"
	"github.com/hyperjump/chikai/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/chikai/config.yaml"

// ingestExtensions are the file types the ingest command picks up when
// walking a directory.
var ingestExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "list":
		runList()
	case "delete":
		runDelete()
	case "ingest":
		runIngest()
	case "collections":
		runCollections()
	case "health":
		runHealth()
	case "version", "--version", "-v":
		fmt.Printf("chikai version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default and a
// config.yaml exists in the current directory, that one is used instead (for
// development). Missing default config falls back to built-in defaults plus
// environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				return config.Load(fallback)
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	backend := fs.String("backend", "qdrant", "vector backend: qdrant or memory (development)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
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

	components, err := initializeComponents(cfg, logger, *backend)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = components.Collections.EnsureDefault(ctx,
		cfg.Documents.DefaultCollection, cfg.Embedding.Dimensions, cfg.Documents.Distance)
	cancel()
	if err != nil {
		logger.Fatal("Failed to ensure default collection", zap.Error(err))
	}
	logger.Info("default collection ready",
		zap.String("collection", cfg.Documents.DefaultCollection),
		zap.Int("dimensions", cfg.Embedding.Dimensions))

	srv := server.NewServer(components.Documents, components.Engine, components.Collections,
		&cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	collection := fs.String("collection", "", "target collection (default: server's default)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chikai add [flags] <text>")
		os.Exit(1)
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := postJSON(*serverURL+"/documents", &models.DocumentInput{Text: text, Collection: *collection}, &resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document added: %s\n", resp.ID)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 5, "number of results")
	collection := fs.String("collection", "", "target collection (default: server's default)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chikai search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	var resp models.SearchResponse
	err := postJSON(*serverURL+"/search", &models.SearchQuery{
		Query: query, Limit: *limit, Collection: *collection,
	}, &resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range resp.Results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, firstLine(r.Text))
		fmt.Printf("   id: %s\n", r.ID)
	}
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 20, "page size")
	offset := fs.String("offset", "", "continuation token from a previous page")
	collection := fs.String("collection", "", "target collection (default: server's default)")
	_ = fs.Parse(os.Args[2:])

	url := fmt.Sprintf("%s/documents?limit=%d", *serverURL, *limit)
	if *offset != "" {
		url += "&offset=" + *offset
	}
	if *collection != "" {
		url += "&collection=" + *collection
	}

	var page models.DocumentPage
	if err := getJSON(url, &page); err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	for _, d := range page.Documents {
		fmt.Printf("%s  %s\n", d.ID, firstLine(d.Text))
	}
	if page.NextOffset != "" {
		fmt.Printf("next page: chikai list -offset %s\n", page.NextOffset)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	collection := fs.String("collection", "", "target collection (default: server's default)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chikai delete [flags] <document-id>")
		os.Exit(1)
	}
	url := *serverURL + "/documents/" + fs.Arg(0)
	if *collection != "" {
		url += "?collection=" + *collection
	}
	if err := doDelete(url); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", fs.Arg(0))
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	collection := fs.String("collection", "", "target collection (default: configured default)")
	backend := fs.String("backend", "qdrant", "vector backend: qdrant or memory")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chikai ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, *backend)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Collections.EnsureDefault(ctx,
		cfg.Documents.DefaultCollection, cfg.Embedding.Dimensions, cfg.Documents.Distance); err != nil {
		logger.Fatal("Failed to ensure default collection", zap.Error(err))
	}

	n, err := ingestPath(ctx, components.Documents, extract.NewExtractor(), path, *collection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d file(s) from %s\n", n, path)
}

// ingestPath ingests a single file, or every supported file under a directory.
// Returns the number of files ingested.
func ingestPath(ctx context.Context, docs *documents.Service, extractor *extract.Extractor, path, collection string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		if err := ingestFile(ctx, docs, extractor, path, collection); err != nil {
			return 0, err
		}
		return 1, nil
	}

	count := 0
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasIngestExtension(p) {
			return nil
		}
		if err := ingestFile(ctx, docs, extractor, p, collection); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		count++
		return nil
	})
	return count, err
}

func ingestFile(ctx context.Context, docs *documents.Service, extractor *extract.Extractor, path, collection string) error {
	text, err := extractor.Extract(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	_, err = docs.Add(ctx, &models.DocumentInput{
		Text:       text,
		Collection: collection,
		Metadata: map[string]interface{}{
			"source":   abs,
			"filename": filepath.Base(path),
		},
	})
	return err
}

// hasIngestExtension reports whether path has one of the supported extensions.
func hasIngestExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ingestExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func runCollections() {
	if len(os.Args) < 3 {
		printCollectionsUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("collections", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	size := fs.Int("size", 384, "vector size (create)")
	distance := fs.String("distance", "cosine", "distance metric: cosine, euclidean, or dot (create)")
	_ = fs.Parse(os.Args[3:])

	switch sub {
	case "list":
		var resp struct {
			Collections []models.CollectionSummary `json:"collections"`
		}
		if err := getJSON(*serverURL+"/collections", &resp); err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		for _, c := range resp.Collections {
			fmt.Printf("%s  (%d points)\n", c.Name, c.PointsCount)
		}
	case "create":
		if fs.NArg() < 1 {
			fmt.Println("Usage: chikai collections create [flags] <name>")
			os.Exit(1)
		}
		in := &models.CollectionCreate{Name: fs.Arg(0), VectorSize: *size, Distance: *distance}
		var resp struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		if err := postJSON(*serverURL+"/collections", in, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Create failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Collection created: %s\n", resp.Name)
	case "info":
		if fs.NArg() < 1 {
			fmt.Println("Usage: chikai collections info <name>")
			os.Exit(1)
		}
		var detail models.CollectionDetail
		if err := getJSON(*serverURL+"/collections/"+fs.Arg(0)+"/info", &detail); err != nil {
			fmt.Fprintf(os.Stderr, "Info failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("name:         %s\n", detail.Name)
		fmt.Printf("dimension:    %d\n", detail.Dimension)
		fmt.Printf("distance:     %s\n", detail.Distance)
		fmt.Printf("points_count: %d\n", detail.PointsCount)
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: chikai collections delete <name>")
			os.Exit(1)
		}
		if err := doDelete(*serverURL + "/collections/" + fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Collection deleted: %s\n", fs.Arg(0))
	default:
		fmt.Printf("Unknown collections subcommand: %s\n", sub)
		printCollectionsUsage()
		os.Exit(1)
	}
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	var resp struct {
		Status           string `json:"status"`
		CollectionsCount int    `json:"collections_count"`
	}
	if err := getJSON(*serverURL+"/health", &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("status:      %s\n", resp.Status)
	fmt.Printf("collections: %d\n", resp.CollectionsCount)
}

// Components holds initialized services.
type Components struct {
	Store       vector.Store
	Embedder    embedding.Embedder
	Documents   *documents.Service
	Engine      *search.Engine
	Collections *collections.Manager
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, backend string) (*Components, error) {
	var store vector.Store
	switch backend {
	case "memory":
		store = vector.NewMemoryStore()
		logger.Warn("using in-memory vector store; data is not persisted")
	case "qdrant", "":
		qs, err := vector.NewQdrantStore(cfg.Qdrant.Addr())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
		store = qs
		logger.Info("qdrant store initialized", zap.String("addr", cfg.Qdrant.Addr()))
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, falling back to deterministic mock",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
		logger.Info("ONNX embedder initialized",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Int("dimensions", cfg.Embedding.Dimensions))
	}

	docs := documents.NewService(store, embedder, &cfg.Documents, documents.WithLogger(logger))
	engine := search.NewEngine(store, embedder, &cfg.Documents)
	cols := collections.NewManager(store, collections.WithLogger(logger))

	return &Components{
		Store:       store,
		Embedder:    embedder,
		Documents:   docs,
		Engine:      engine,
		Collections: cols,
	}, nil
}

func postJSON(url string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func doDelete(url string) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// firstLine returns the first line of text, truncated for display.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 80 {
		return text[:77] + "..."
	}
	return text
}

func printCollectionsUsage() {
	fmt.Println(`Usage: chikai collections <list|create|info|delete> [flags] [name]
  chikai collections list
  chikai collections create -size 384 -distance cosine <name>
  chikai collections info <name>
  chikai collections delete <name>`)
}

func printUsage() {
	fmt.Println(`chikai - semantic document search API over Qdrant

Usage:
  chikai server [flags]                Start the HTTP server
  chikai add [flags] <text>            Add a document
  chikai search [flags] <query>        Search documents by similarity
  chikai list [flags]                  List documents (paginated)
  chikai delete [flags] <id>           Delete a document
  chikai ingest [flags] <file-or-dir>  Ingest files (txt, md, rst, pdf, docx, xlsx)
  chikai collections <sub> [flags]     Manage collections (list, create, info, delete)
  chikai health [flags]                Check server health
  chikai version                       Show version
  chikai help                          Show this help

Server Flags:
  --config string     Config file path (default: /usr/local/etc/chikai/config.yaml)
  --debug             Enable debug logging
  --backend string    Vector backend: qdrant or memory (default: qdrant)

Environment:
  QDRANT_HOST, QDRANT_PORT   Override the Qdrant endpoint
  CHIKAI_MODEL               Override the embedding model path

Examples:
  chikai server
  chikai add "Machine learning is awesome"
  chikai search "artificial intelligence"
  chikai ingest ./docs
  chikai collections create -size 384 notes
  chikai collections info notes`)
}
