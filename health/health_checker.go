// Package health provides health checking functionality for the anemia API.
package health

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/giygas/anemia-api/interfaces"
)

// DefaultReloadTimes is used when no reload schedule is configured
const DefaultReloadTimes = "06:00;18:00"

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	reloadTimes []time.Duration // offsets from midnight, ascending
}

// NewHealthChecker creates a new health checker with injected dependencies.
// reloadTimes uses the scheduler syntax, e.g. "06:00;18:00".
func NewHealthChecker(dataStore interfaces.DataStore, reloadTimes string) interfaces.HealthChecker {
	offsets := ParseReloadTimes(reloadTimes)
	if len(offsets) == 0 {
		offsets = ParseReloadTimes(DefaultReloadTimes)
	}
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		reloadTimes: offsets,
	}
}

// HealthCheck returns HTTP-specific health data with stricter thresholds
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	supplements := h.dataStore.GetSupplements()
	locations := h.dataStore.GetLocations()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(supplements) == 0 || len(locations) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"supplements":    len(supplements),
		"locations":      len(locations),
		"is_updating":    isUpdating,
		"next_update":    h.CalculateNextUpdate().Format(time.RFC3339),
	}

	if report := h.dataStore.GetDataQualityReport(); report != nil {
		data["supplements_without_guidelines"] = len(report.SupplementsWithoutGuidelines)
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextReload(time.Now(), h.reloadTimes)
}

// NextReload returns the first reload strictly after now
func NextReload(now time.Time, offsets []time.Duration) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, offset := range offsets {
		if candidate := midnight.Add(offset); candidate.After(now) {
			return candidate
		}
	}
	if len(offsets) == 0 {
		return midnight.AddDate(0, 0, 1)
	}
	return midnight.AddDate(0, 0, 1).Add(offsets[0])
}

// ParseReloadTimes reads a ';' separated list of HH:MM times. Invalid
// entries are skipped.
func ParseReloadTimes(expr string) []time.Duration {
	var offsets []time.Duration
	for _, part := range strings.Split(expr, ";") {
		t, err := time.Parse("15:04", strings.TrimSpace(part))
		if err != nil {
			continue
		}
		offsets = append(offsets, time.Duration(t.Hour())*time.Hour+time.Duration(t.Minute())*time.Minute)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}
