package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/interfaces"
)

// MockHealthDataStore for testing
type MockHealthDataStore struct {
	supplements []entities.Supplement
	locations   []entities.Location
	lastUpdated time.Time
	isUpdating  bool
}

func (m *MockHealthDataStore) GetSupplements() []entities.Supplement {
	return m.supplements
}

func (m *MockHealthDataStore) GetSupplementsMap() map[string]entities.Supplement {
	return make(map[string]entities.Supplement)
}

func (m *MockHealthDataStore) GetLocations() []entities.Location {
	return m.locations
}

func (m *MockHealthDataStore) GetLocationsMap() map[string]entities.Location {
	return make(map[string]entities.Location)
}

func (m *MockHealthDataStore) GetDataQualityReport() *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{SupplementsWithoutGuidelines: []string{"X"}}
}

func (m *MockHealthDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockHealthDataStore) IsUpdating() bool {
	return m.isUpdating
}

func (m *MockHealthDataStore) GetServerStartTime() time.Time {
	return time.Time{} // Return zero time for mock
}

func (m *MockHealthDataStore) UpdateData(supplements []entities.Supplement, supplementsMap map[string]entities.Supplement,
	locations []entities.Location, locationsMap map[string]entities.Location, report *interfaces.DataQualityReport) {
	// Not used in health tests
}

func (m *MockHealthDataStore) BeginUpdate() bool {
	return true
}

func (m *MockHealthDataStore) EndUpdate() {
	// Not used in health tests
}

func populatedStore(age time.Duration, updating bool) *MockHealthDataStore {
	return &MockHealthDataStore{
		supplements: []entities.Supplement{{ID: "SF-60"}, {ID: "SF-JARABE"}},
		locations:   []entities.Location{{District: "Cusco"}},
		lastUpdated: time.Now().Add(-age),
		isUpdating:  updating,
	}
}

func TestNewHealthChecker(t *testing.T) {
	healthChecker := NewHealthChecker(&MockHealthDataStore{}, "")

	if healthChecker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}

	impl, ok := healthChecker.(*HealthCheckerImpl)
	if !ok {
		t.Fatal("NewHealthChecker should return *HealthCheckerImpl")
	}
	if len(impl.reloadTimes) != 2 {
		t.Errorf("Expected default reload schedule, got %v", impl.reloadTimes)
	}
}

func TestHealthCheck_Status(t *testing.T) {
	testCases := []struct {
		name           string
		store          *MockHealthDataStore
		expectedStatus string
		expectedCode   int
	}{
		{"healthy", populatedStore(time.Hour, false), "healthy", http.StatusOK},
		{"updating recently", populatedStore(time.Hour, true), "healthy", http.StatusOK},
		{"no data", &MockHealthDataStore{lastUpdated: time.Now()}, "unhealthy", http.StatusServiceUnavailable},
		{"no locations", &MockHealthDataStore{supplements: []entities.Supplement{{ID: "A"}}, lastUpdated: time.Now()}, "unhealthy", http.StatusServiceUnavailable},
		{"stale", populatedStore(30*time.Hour, false), "degraded", http.StatusServiceUnavailable},
		{"very stale", populatedStore(50*time.Hour, false), "unhealthy", http.StatusServiceUnavailable},
		{"stuck update", populatedStore(7*time.Hour, true), "degraded", http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, details, code := NewHealthChecker(tc.store, DefaultReloadTimes).HealthCheck()

			if status != tc.expectedStatus {
				t.Errorf("Expected status '%s', got '%s'", tc.expectedStatus, status)
			}
			if code != tc.expectedCode {
				t.Errorf("Expected code %d, got %d", tc.expectedCode, code)
			}
			for _, key := range []string{"last_update", "data_age_hours", "supplements", "locations", "is_updating", "next_update"} {
				if _, ok := details[key]; !ok {
					t.Errorf("Details should contain '%s'", key)
				}
			}
		})
	}
}

func TestHealthCheck_Details(t *testing.T) {
	_, details, _ := NewHealthChecker(populatedStore(2*time.Hour, false), DefaultReloadTimes).HealthCheck()

	if details["supplements"] != 2 {
		t.Errorf("Expected 2 supplements, got %v", details["supplements"])
	}
	if details["locations"] != 1 {
		t.Errorf("Expected 1 location, got %v", details["locations"])
	}
	if details["supplements_without_guidelines"] != 1 {
		t.Errorf("Expected quality report count 1, got %v", details["supplements_without_guidelines"])
	}
	if age, ok := details["data_age_hours"].(float64); !ok || age < 1.9 || age > 2.1 {
		t.Errorf("Expected data age around 2h, got %v", details["data_age_hours"])
	}
}

func TestNextReload(t *testing.T) {
	offsets := ParseReloadTimes("18:00; 06:00")

	testCases := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{"before morning", time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)},
		{"exactly at morning", time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)},
		{"afternoon", time.Date(2024, 3, 10, 13, 30, 0, 0, time.UTC), time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)},
		{"night rolls over", time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC), time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2024, 2, 29, 19, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextReload(tc.now, offsets); !got.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestParseReloadTimes(t *testing.T) {
	offsets := ParseReloadTimes("07:30;bogus;25:00;00:15")

	if len(offsets) != 2 {
		t.Fatalf("Expected 2 valid times, got %v", offsets)
	}
	if offsets[0] != 15*time.Minute || offsets[1] != 7*time.Hour+30*time.Minute {
		t.Errorf("Unexpected offsets %v", offsets)
	}

	checker := NewHealthChecker(populatedStore(time.Hour, false), "nonsense").(*HealthCheckerImpl)
	if len(checker.reloadTimes) != 2 {
		t.Errorf("Invalid schedule should fall back to the default, got %v", checker.reloadTimes)
	}
}

func TestCalculateNextUpdateIsInFuture(t *testing.T) {
	next := NewHealthChecker(populatedStore(time.Hour, false), DefaultReloadTimes).CalculateNextUpdate()

	if !next.After(time.Now()) {
		t.Errorf("Next update %v should be in the future", next)
	}
	if next.Sub(time.Now()) > 24*time.Hour {
		t.Errorf("Next update %v should be within a day", next)
	}
}
