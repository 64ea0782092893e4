// Package data provides thread-safe data storage and management for the anemia API.
// It includes the DataContainer struct with atomic operations for zero-downtime
// catalog reloads and lock-free access to supplements and locations.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	supplements     atomic.Value // []entities.Supplement
	supplementsMap  atomic.Value // map[string]entities.Supplement
	locations       atomic.Value // []entities.Location
	locationsMap    atomic.Value // map[string]entities.Location
	report          atomic.Value // *interfaces.DataQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.supplements.Store(make([]entities.Supplement, 0))
	dc.supplementsMap.Store(make(map[string]entities.Supplement))
	dc.locations.Store(make([]entities.Location, 0))
	dc.locationsMap.Store(make(map[string]entities.Location))
	dc.report.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetSupplements returns the supplement catalog in file order
func (dc *DataContainer) GetSupplements() []entities.Supplement {
	if v := dc.supplements.Load(); v != nil {
		if supplements, ok := v.([]entities.Supplement); ok {
			return supplements
		}
	}

	logging.Warn("Supplements list is empty or invalid")
	return []entities.Supplement{}
}

// GetSupplementsMap returns the supplements keyed by ID
func (dc *DataContainer) GetSupplementsMap() map[string]entities.Supplement {
	if v := dc.supplementsMap.Load(); v != nil {
		if supplementsMap, ok := v.(map[string]entities.Supplement); ok {
			return supplementsMap
		}
	}

	logging.Warn("SupplementsMap is empty or invalid")
	return make(map[string]entities.Supplement)
}

// GetLocations returns the altitude table
func (dc *DataContainer) GetLocations() []entities.Location {
	if v := dc.locations.Load(); v != nil {
		if locations, ok := v.([]entities.Location); ok {
			return locations
		}
	}

	logging.Warn("Locations list is empty or invalid")
	return []entities.Location{}
}

// GetLocationsMap returns the locations keyed by normalized district name
func (dc *DataContainer) GetLocationsMap() map[string]entities.Location {
	if v := dc.locationsMap.Load(); v != nil {
		if locationsMap, ok := v.(map[string]entities.Location); ok {
			return locationsMap
		}
	}

	logging.Warn("LocationsMap is empty or invalid")
	return make(map[string]entities.Location)
}

// GetDataQualityReport returns the report computed on the last reload
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.report.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok && report != nil {
			return report
		}
	}
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically updates all data in the container
func (dc *DataContainer) UpdateData(supplements []entities.Supplement, supplementsMap map[string]entities.Supplement,
	locations []entities.Location, locationsMap map[string]entities.Location, report *interfaces.DataQualityReport) {

	if supplements == nil {
		supplements = []entities.Supplement{}
	}
	if supplementsMap == nil {
		supplementsMap = map[string]entities.Supplement{}
	}
	if locations == nil {
		locations = []entities.Location{}
	}
	if locationsMap == nil {
		locationsMap = map[string]entities.Location{}
	}
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	// Atomic swap (zero downtime replacement)
	dc.supplements.Store(supplements)
	dc.supplementsMap.Store(supplementsMap)
	dc.locations.Store(locations)
	dc.locationsMap.Store(locationsMap)
	dc.report.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
