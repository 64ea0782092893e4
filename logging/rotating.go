package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	filePrefix         = "anemia-api-"
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var numberedFileRe = regexp.MustCompile(`^anemia-api-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger writes to one file per ISO week (anemia-api-2024-W23.log).
// When a file reaches maxFileSize the writer moves on to a numbered sibling
// (anemia-api-2024-W23_01.log). Files older than the retention are removed
// once a day.
type RotatingLogger struct {
	logDir       string
	currentFile  *os.File
	currentWeek  string
	retention    time.Duration
	maxFileSize  int64
	currentSize  atomic.Int64
	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	cleanupDone  chan struct{}
	cleanupOn    atomic.Bool
	closeTimeout time.Duration
}

// NewRotatingLogger creates a rotating logger. A maxFileSize of 0 disables
// size based rotation.
func NewRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:       logDir,
		retention:    time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize:  maxFileSize,
		ctx:          ctx,
		cancel:       cancel,
		cleanupDone:  make(chan struct{}),
		closeTimeout: 5 * time.Second,
	}
}

// weekKey returns the ISO week in YYYY-Www format
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate opens the file for targetWeek. Caller must hold mu.
func (rl *RotatingLogger) rotate(targetWeek string, full bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.currentFile = nil
	}

	fileName := rl.fileFor(targetWeek, full)
	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek
	rl.currentSize.Store(0)
	if info, err := file.Stat(); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// fileFor picks the next numbered file when the current one is full.
// Otherwise it reuses the base weekly file or the highest numbered sibling
// while they have room.
func (rl *RotatingLogger) fileFor(targetWeek string, full bool) string {
	highest, lastPath := rl.highestNumbered(targetWeek)
	next := fmt.Sprintf("%s%s_%02d.log", filePrefix, targetWeek, highest+1)
	if full {
		return next
	}

	base := filePrefix + targetWeek + ".log"
	if !rl.atLimit(filepath.Join(rl.logDir, base)) {
		return base
	}
	if lastPath != "" && !rl.atLimit(lastPath) {
		return filepath.Base(lastPath)
	}
	return next
}

func (rl *RotatingLogger) atLimit(path string) bool {
	if rl.maxFileSize <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() >= rl.maxFileSize
}

func (rl *RotatingLogger) highestNumbered(targetWeek string) (int, string) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+targetWeek+"_??.log"))

	highest := 0
	var lastPath string
	for _, match := range matches {
		groups := numberedFileRe.FindStringSubmatch(filepath.Base(match))
		if len(groups) < 2 {
			continue
		}
		if num, err := strconv.Atoi(groups[1]); err == nil && num > highest {
			highest = num
			lastPath = match
		}
	}

	return highest, lastPath
}

// Write implements io.Writer, rotating on week change or when p would not
// fit in the current file
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(time.Now())
	full := rl.maxFileSize > 0 && rl.currentFile != nil &&
		rl.currentSize.Load()+int64(len(p)) > rl.maxFileSize

	if rl.currentFile == nil || rl.currentWeek != week || full {
		if err := rl.rotate(week, full); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes log files modified before the retention cutoff
// and returns how many were deleted
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		rl.mu.Lock()
		isCurrent := rl.currentFile != nil && filepath.Base(rl.currentFile.Name()) == name
		rl.mu.Unlock()
		if isCurrent {
			continue
		}

		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}

	return deleted, nil
}

// startCleanup runs cleanupOldLogs daily until Close is called
func (rl *RotatingLogger) startCleanup() {
	if !rl.cleanupOn.CompareAndSwap(false, true) {
		return
	}
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		defer close(rl.cleanupDone)

		for {
			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
				deleted, err := rl.cleanupOldLogs()
				if err != nil {
					// stderr, the logger itself may be the one failing
					fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
				} else if deleted > 0 {
					fmt.Fprintf(os.Stderr, "cleaned up %d old log files\n", deleted)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	if rl.cleanupOn.Load() {
		select {
		case <-rl.cleanupDone:
		case <-time.After(rl.closeTimeout):
			fmt.Fprintln(os.Stderr, "background log cleanup did not shut down in time")
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile != nil {
		err := rl.currentFile.Close()
		rl.currentFile = nil
		return err
	}
	return nil
}
