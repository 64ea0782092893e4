// Package scheduler loads the supplement catalog and the altitude table at
// startup, reloads them at fixed times of day, and warns when the served
// data goes stale.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/metrics"
	"github.com/giygas/anemia-api/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// ErrEmptyCatalog is returned when a reload yields no supplements or no locations
var ErrEmptyCatalog = errors.New("catalog is empty")

const (
	staleAfter       = 25 * time.Hour
	staleCheckPeriod = time.Hour
)

// Scheduler handles catalog reloads and staleness monitoring
type Scheduler struct {
	dataStore   interfaces.DataStore
	parser      interfaces.Parser
	validator   interfaces.DataValidator
	reloadTimes string
	scheduler   *gocron.Scheduler
	done        chan struct{}
}

// NewScheduler creates a scheduler reloading at reloadTimes, a gocron At()
// expression such as "06:00;18:00"
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, reloadTimes string) *Scheduler {
	return &Scheduler{
		dataStore:   dataStore,
		parser:      parser,
		validator:   validation.NewDataValidator(),
		reloadTimes: reloadTimes,
		scheduler:   gocron.NewScheduler(time.Local),
		done:        make(chan struct{}),
	}
}

// Start performs the initial load, which must succeed, then schedules the
// reloads and the staleness monitor
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.reloadTimes).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to reload catalog, keeping previous data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog reloads", "times", s.reloadTimes, "error", err)
		return fmt.Errorf("failed to schedule catalog reloads: %w", err)
	}

	s.scheduler.StartAsync()
	s.startStaleMonitor()

	logging.Info("Catalog reloads scheduled", "times", s.reloadTimes)
	return nil
}

// Stop stops scheduled reloads and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// updateData loads, validates and atomically publishes a new catalog. The
// previous catalog stays in place when any step fails.
func (s *Scheduler) updateData() (err error) {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog reload already in progress, skipping")
		metrics.CatalogReloadsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	defer s.dataStore.EndUpdate()

	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.CatalogReloadsTotal.WithLabelValues(result).Inc()
	}()

	start := time.Now()
	logging.Info("Starting catalog reload")

	supplements, locations, err := s.parser.ParseCatalog()
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(supplements) == 0 || len(locations) == 0 {
		return fmt.Errorf("%w: %d supplements, %d locations", ErrEmptyCatalog, len(supplements), len(locations))
	}

	if err := s.validator.ValidateDataIntegrity(supplements, locations); err != nil {
		return fmt.Errorf("catalog rejected: %w", err)
	}

	report := s.validator.ReportDataQuality(supplements, locations)
	validation.LogReport(report)

	supplementsMap, locationsMap := buildMaps(supplements, locations)
	s.dataStore.UpdateData(supplements, supplementsMap, locations, locationsMap, report)

	logging.Info("Catalog reload completed",
		"duration", time.Since(start).String(),
		"supplements", len(supplements),
		"locations", len(locations),
	)
	return nil
}

// buildMaps indexes supplements by ID and locations by normalized name
func buildMaps(supplements []entities.Supplement, locations []entities.Location) (map[string]entities.Supplement, map[string]entities.Location) {
	supplementsMap := make(map[string]entities.Supplement, len(supplements))
	for _, supplement := range supplements {
		supplementsMap[supplement.ID] = supplement
	}

	locationsMap := make(map[string]entities.Location, len(locations))
	for _, location := range locations {
		locationsMap[location.NameNormalized] = location
	}

	return supplementsMap, locationsMap
}

func (s *Scheduler) startStaleMonitor() {
	go func() {
		ticker := time.NewTicker(staleCheckPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > staleAfter {
					logging.Warn("Catalog hasn't been reloaded in over 25 hours", "last_update", lastUpdate)
				}
			}
		}
	}()
}
