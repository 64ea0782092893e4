// Package catalog loads the supplement catalog, the dosing guidelines and
// the altitude table from TSV files, optionally refreshing them from a
// remote source first.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
	"github.com/sony/gobreaker"
)

// Compile-time check to ensure Loader implements Parser interface
var _ interfaces.Parser = (*Loader)(nil)

// Loader reads the catalog from a directory. Files missing from the
// directory fall back to the embedded defaults.
type Loader struct {
	dir     string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewLoader creates a loader. An empty baseURL disables downloading.
func NewLoader(dir, baseURL string) *Loader {
	return &Loader{
		dir:     dir,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		breaker: newDownloadBreaker(),
		timeout: 5 * time.Minute,
	}
}

// ParseCatalog implements the Parser interface
func (l *Loader) ParseCatalog() ([]entities.Supplement, []entities.Location, error) {
	if l.baseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		err := l.downloadAll(ctx)
		cancel()
		if err != nil {
			logging.Warn("Catalog download failed, using local files", "error", err)
		}
	}

	var wg sync.WaitGroup
	var supplements []entities.Supplement
	var guidelines []entities.DoseGuideline
	var locations []entities.Location
	var supplementsErr, guidelinesErr, locationsErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		supplements, supplementsErr = readCatalogFile(l, SupplementsFile, parseSupplements)
	}()
	go func() {
		defer wg.Done()
		guidelines, guidelinesErr = readCatalogFile(l, GuidelinesFile, parseGuidelines)
	}()
	go func() {
		defer wg.Done()
		locations, locationsErr = readCatalogFile(l, LocationsFile, parseLocations)
	}()
	wg.Wait()

	if err := errors.Join(supplementsErr, guidelinesErr, locationsErr); err != nil {
		return nil, nil, err
	}

	supplements = attachGuidelines(supplements, guidelines)
	logging.Info("Catalog parsed",
		"supplements", len(supplements),
		"guidelines", len(guidelines),
		"locations", len(locations))

	return supplements, locations, nil
}

// open returns the content of a catalog file and where it came from
func (l *Loader) open(name string) ([]byte, string, error) {
	if l.dir != "" {
		localPath := filepath.Join(l.dir, name)
		content, err := os.ReadFile(localPath)
		if err == nil {
			return content, localPath, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to open %s: %w", localPath, err)
		}
	}

	content, err := defaultFiles.ReadFile(path.Join("defaults", name))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open embedded %s: %w", name, err)
	}
	return content, "embedded", nil
}

func readCatalogFile[T any](l *Loader, name string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	content, source, err := l.open(name)
	if err != nil {
		return nil, err
	}
	logging.Debug("Reading catalog file", "file", name, "source", source)
	return parse(decodeCatalog(content))
}

// attachGuidelines groups guideline rows under their supplement, sorted by
// starting age. Rows for unknown supplements are dropped.
func attachGuidelines(supplements []entities.Supplement, guidelines []entities.DoseGuideline) []entities.Supplement {
	byID := make(map[string][]entities.DoseGuideline)
	for _, g := range guidelines {
		byID[g.SupplementID] = append(byID[g.SupplementID], g)
	}

	result := make([]entities.Supplement, 0, len(supplements))
	for _, s := range supplements {
		rows := byID[s.ID]
		slices.SortFunc(rows, func(a, b entities.DoseGuideline) int {
			return a.FromAgeDays - b.FromAgeDays
		})
		s.Guidelines = rows
		delete(byID, s.ID)
		result = append(result, s)
	}

	for id, rows := range byID {
		logging.Warn("Guidelines reference an unknown supplement", "supplement_id", id, "rows", len(rows))
	}
	return result
}
