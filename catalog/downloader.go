package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/giygas/anemia-api/logging"
	"github.com/sony/gobreaker"
)

const maxCatalogFileSize = 10 * 1024 * 1024

func newDownloadBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-download",
		MaxRequests: 1,
		Interval:    time.Hour,
		Timeout:     15 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// downloadFile fetches one catalog file, decodes it to UTF-8 and stages it
// in a temporary file next to its final path. It returns the staged path.
func (l *Loader) downloadFile(ctx context.Context, name string) (string, error) {
	cleanPath := filepath.Join(l.dir, filepath.Base(name))
	if !strings.HasPrefix(cleanPath, filepath.Clean(l.dir)) {
		return "", fmt.Errorf("invalid filepath: %s", name)
	}
	url := strings.TrimRight(l.baseURL, "/") + "/" + name

	result, err := l.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		response, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", url, err)
		}
		defer func() {
			if err := response.Body.Close(); err != nil {
				logging.Warn("Failed to close response body", "error", err)
			}
		}()

		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download %s: status %d", url, response.StatusCode)
		}
		return io.ReadAll(io.LimitReader(response.Body, maxCatalogFileSize))
	})
	if err != nil {
		return "", err
	}

	content, err := io.ReadAll(decodeCatalog(result.([]byte)))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(l.dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", name))
	return tmp.Name(), nil
}

// downloadAll fetches every catalog file concurrently. Local files are only
// replaced once every download succeeded, so a partial failure leaves the
// previous catalog set untouched.
func (l *Loader) downloadAll(ctx context.Context) error {
	if err := os.MkdirAll(l.dir, 0750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	staged := make(map[string]string, len(catalogFiles))

	for _, name := range catalogFiles {
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			tmpPath, err := l.downloadFile(ctx, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			staged[file] = tmpPath
		}(name)
	}
	wg.Wait()

	if len(errs) > 0 {
		for _, tmpPath := range staged {
			if err := os.Remove(tmpPath); err != nil {
				logging.Warn("Failed to remove staged catalog file", "path", tmpPath, "error", err)
			}
		}
		logging.Error("Download errors occurred", "errors", errs)
		return fmt.Errorf("download errors: %v", errs)
	}

	for _, name := range catalogFiles {
		target := filepath.Join(l.dir, filepath.Base(name))
		if err := os.Rename(staged[name], target); err != nil {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
	}
	return nil
}
