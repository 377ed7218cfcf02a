package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Metadata holds information about the downloaded catalog document
type Metadata struct {
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
	ETag         string    `json:"etag,omitempty"`
	Size         int64     `json:"size"`
}

// Fetcher downloads the catalog document from a remote URL and keeps a
// metadata sidecar to detect staleness
type Fetcher struct {
	catalogURL   string
	catalogPath  string
	metadataPath string
	client       *http.Client
	log          *slog.Logger
}

// NewFetcher creates a new catalog fetcher
func NewFetcher(catalogURL, catalogPath, metadataPath string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		catalogURL:   catalogURL,
		catalogPath:  catalogPath,
		metadataPath: metadataPath,
		client:       &http.Client{Timeout: 5 * time.Minute},
		log:          logger,
	}
}

// EnsureCatalog makes sure a catalog document is present locally,
// downloading it when missing or stale
func (f *Fetcher) EnsureCatalog(ctx context.Context) error {
	start := time.Now()
	f.log.Info("Ensuring catalog is available", "path", f.catalogPath)

	if _, err := os.Stat(f.catalogPath); err == nil {
		upToDate, err := f.isUpToDate(ctx)
		if err != nil {
			f.log.Warn("Failed to verify catalog freshness", "error", err)
			return nil // keep serving the local copy
		}
		if upToDate {
			f.log.Info("Catalog is up-to-date", "duration", time.Since(start))
			return nil
		}
	}

	if err := f.download(ctx); err != nil {
		return fmt.Errorf("failed to download catalog: %w", err)
	}

	f.log.Info("Catalog ensured", "duration", time.Since(start))
	return nil
}

// isUpToDate compares local metadata with the remote via a HEAD request
func (f *Fetcher) isUpToDate(ctx context.Context) (bool, error) {
	localMeta, err := f.loadMetadata()
	if err != nil {
		f.log.Debug("No local catalog metadata found", "error", err)
		return false, nil
	}

	remoteMeta, err := f.remoteMetadata(ctx)
	if err != nil {
		return false, err
	}

	if remoteMeta.ETag != "" && localMeta.ETag != "" {
		return remoteMeta.ETag == localMeta.ETag, nil
	}

	// Fallback to size comparison
	return remoteMeta.Size == localMeta.Size, nil
}

func (f *Fetcher) remoteMetadata(ctx context.Context) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.catalogURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HEAD request failed with status: %d", resp.StatusCode)
	}

	return &Metadata{
		ETag: resp.Header.Get("ETag"),
		Size: resp.ContentLength,
	}, nil
}

// download fetches the catalog to a temporary file and atomically replaces
// the local copy
func (f *Fetcher) download(ctx context.Context) error {
	start := time.Now()
	f.log.Info("Downloading catalog", "url", f.catalogURL, "path", f.catalogPath)

	if err := os.MkdirAll(filepath.Dir(f.catalogPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.catalogURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tmpPath := f.catalogPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	written, err := io.Copy(file, resp.Body)
	file.Close()
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	sha, err := computeSHA256(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to compute SHA256: %w", err)
	}

	if err := os.Rename(tmpPath, f.catalogPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}

	meta := &Metadata{
		SHA256:       sha,
		DownloadedAt: time.Now().UTC(),
		ETag:         resp.Header.Get("ETag"),
		Size:         written,
	}
	if err := f.saveMetadata(meta); err != nil {
		f.log.Warn("Failed to save catalog metadata", "error", err)
	}

	f.log.Info("Catalog downloaded", "bytes", written, "sha256", sha[:16]+"...", "duration", time.Since(start))
	return nil
}

func (f *Fetcher) loadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(f.metadataPath)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (f *Fetcher) saveMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(f.metadataPath, data, 0644)
}

func computeSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
