package main

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/receipt"
)

type cachedResult struct {
	FileHash    string         `json:"file_hash"`
	ProcessedAt time.Time      `json:"processed_at"`
	Result      receipt.Result `json:"result"`
}

// scanCache remembers results per file path so unchanged receipts are not
// sent through OCR again.
type scanCache struct {
	Files map[string]cachedResult `json:"files"`
}

func loadCache(cacheFile string) (*scanCache, error) {
	cache := &scanCache{Files: make(map[string]cachedResult)}
	if cacheFile == "" {
		return cache, nil
	}

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.Files == nil {
		cache.Files = make(map[string]cachedResult)
	}
	return cache, nil
}

func saveCache(cacheFile string, cache *scanCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
