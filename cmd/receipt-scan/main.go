// Command receipt-scan runs OCR and field extraction over receipt files and
// prints one JSON object per receipt.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"fintrack/internal/receipt"
	"fintrack/internal/service"
	"fintrack/pkg/config"
	"fintrack/pkg/logger"

	"go.uber.org/zap"
)

type line struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
	receipt.Result
	Cached bool `json:"cached,omitempty"`
}

type textExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type scanner struct {
	ocr       textExtractor
	extractor *receipt.Extractor
	cache     *scanCache
	out       *json.Encoder
	logger    *zap.Logger
}

func main() {
	cacheFile := flag.String("cache", "", "JSON file remembering results of unchanged receipts")
	tablesFile := flag.String("tables", "", "YAML file overriding category, brand and month tables")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-cache file] [-tables file] <file-or-dir>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	tables := receipt.DefaultTables()
	if path := firstNonEmpty(*tablesFile, cfg.Receipt.TablesFile); path != "" {
		tables, err = receipt.LoadTables(path)
		if err != nil {
			appLogger.Fatal("Failed to load receipt tables", zap.Error(err))
		}
	}

	recognizer, err := service.NewRecognizer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize OCR", zap.Error(err))
	}

	cache, err := loadCache(*cacheFile)
	if err != nil {
		appLogger.Warn("Failed to load cache, will process all files", zap.Error(err))
		cache = &scanCache{Files: make(map[string]cachedResult)}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &scanner{
		ocr:       service.NewOCRService(recognizer, appLogger),
		extractor: receipt.NewExtractor(tables),
		cache:     cache,
		out:       json.NewEncoder(os.Stdout),
		logger:    appLogger,
	}

	failed := 0
	for _, root := range flag.Args() {
		n, err := s.scanPath(ctx, root)
		failed += n
		if err != nil {
			appLogger.Error("Failed to scan path", zap.String("path", root), zap.Error(err))
			failed++
		}
	}

	if *cacheFile != "" {
		if err := saveCache(*cacheFile, cache); err != nil {
			appLogger.Warn("Failed to save cache", zap.Error(err))
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// scanPath scans a file or every supported file below a directory and
// returns how many receipts failed.
func (s *scanner) scanPath(ctx context.Context, root string) (int, error) {
	files, err := collectFiles(root)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if !s.scanFile(ctx, path) {
			failed++
		}
	}
	return failed, nil
}

func (s *scanner) scanFile(ctx context.Context, path string) bool {
	hash, err := fileHash(path)
	if err != nil {
		s.logger.Warn("Failed to calculate file hash, will process anyway", zap.String("path", path), zap.Error(err))
	}
	if cached, ok := s.cache.Files[path]; ok && hash != "" && cached.FileHash == hash {
		s.logger.Debug("Receipt unchanged, using cached result", zap.String("path", path))
		s.emit(line{File: path, Result: cached.Result, Cached: true})
		return true
	}

	text, err := s.ocr.ExtractText(ctx, path)
	if err != nil {
		s.emit(line{File: path, Error: err.Error()})
		return false
	}

	result := s.extractor.Extract(text)
	if hash != "" {
		s.cache.Files[path] = cachedResult{FileHash: hash, ProcessedAt: time.Now(), Result: result}
	}
	s.emit(line{File: path, Result: result})
	return true
}

func (s *scanner) emit(l line) {
	if err := s.out.Encode(l); err != nil {
		s.logger.Error("Failed to write result", zap.Error(err))
	}
}

func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png", ".pdf", ".txt":
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
