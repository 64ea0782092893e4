// Package interfaces defines core abstractions for the anemia API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
)

// DataQualityReport provides a summary of catalog quality issues
type DataQualityReport struct {
	DuplicateSupplementIDs       []string `json:"duplicate_supplement_ids"`
	DuplicateLocationKeys        []string `json:"duplicate_location_keys"`
	SupplementsWithoutGuidelines []string `json:"supplements_without_guidelines"`
	MissingAdultSKUs             []string `json:"missing_adult_skus"`
	LocationsWithoutAltitude     int      `json:"locations_without_altitude"` // Locations at sea level or with altitude 0
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the supplement catalog and the
// altitude table with atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetSupplements() []entities.Supplement
	GetSupplementsMap() map[string]entities.Supplement
	GetLocations() []entities.Location
	GetLocationsMap() map[string]entities.Location
	GetDataQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(supplements []entities.Supplement, supplementsMap map[string]entities.Supplement,
		locations []entities.Location, locationsMap map[string]entities.Location, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for loading the catalog from its sources.
// Guidelines are returned attached to their supplement.
type Parser interface {
	ParseCatalog() ([]entities.Supplement, []entities.Location, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and staleness checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Engine endpoints
	Diagnose(w http.ResponseWriter, r *http.Request)
	Prescribe(w http.ResponseWriter, r *http.Request)
	Screen(w http.ResponseWriter, r *http.Request)
	SelectAdultSupplement(w http.ResponseWriter, r *http.Request)

	// Catalog endpoints
	ServeSupplements(w http.ResponseWriter, r *http.Request)
	FindSupplementByID(w http.ResponseWriter, r *http.Request)
	FindLocation(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status and the HTTP code to serve it with
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures catalog integrity and sanitizes user input.
type DataValidator interface {
	// ValidateSupplement checks if a supplement entity is valid
	ValidateSupplement(s *entities.Supplement) error

	// ValidateLocation checks if a location entity is valid
	ValidateLocation(l *entities.Location) error

	// ValidateDataIntegrity rejects a catalog that cannot be served
	ValidateDataIntegrity(supplements []entities.Supplement, locations []entities.Location) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(supplements []entities.Supplement, locations []entities.Location) *DataQualityReport

	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ValidateSupplementID validates catalog identifiers such as "SF-120"
	ValidateSupplementID(input string) (string, error)
}
