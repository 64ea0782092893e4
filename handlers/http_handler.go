// Package handlers provides the HTTP handlers of the anemia API: diagnosis,
// prescription and screening endpoints, catalog lookups and health.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/diagnosis"
	"github.com/giygas/anemia-api/dosing"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/screening"
	"github.com/giygas/anemia-api/validation"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	service       *screening.Service
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		service:       screening.NewService(dataStore),
	}
}

// ServeHTTP answers requests no route matched
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("No endpoint for %s %s", r.Method, r.URL.Path))
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// respondWithEngineError maps engine and catalog errors onto status codes:
// bad input is 400, unknown catalog entries 404, and inputs that are valid
// but have no applicable rule 422
func (h *HTTPHandlerImpl) respondWithEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screening.ErrUnknownSupplement), errors.Is(err, screening.ErrUnknownLocation):
		h.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, validation.ErrInvalidPatient),
		errors.Is(err, diagnosis.ErrInvalidInput),
		errors.Is(err, dosing.ErrInvalidInput):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, diagnosis.ErrIndeterminate),
		errors.Is(err, dosing.ErrNoGuideline),
		errors.Is(err, dosing.ErrOverlappingGuidelines),
		errors.Is(err, dosing.ErrUnsupportedFormulation):
		h.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logging.Error("Unexpected engine error", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Diagnose classifies one hemoglobin reading
func (h *HTTPHandlerImpl) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := req.toInput(h.validator)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Diagnose(input)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, result)
}

// Prescribe computes a dose for a catalog or inline supplement
func (h *HTTPHandlerImpl) Prescribe(w http.ResponseWriter, r *http.Request) {
	var req PrescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := req.toInput(h.validator)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	prescription, err := h.service.Prescribe(input)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, prescription)
}

// Screen runs the full diagnosis and prescription flow
func (h *HTTPHandlerImpl) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreeningRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := req.toInput(h.validator)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Screen(input)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, result)
}

// SelectAdultSupplement returns the adult tablet for sex, anemia and
// pregnancy or lactation given as query parameters
func (h *HTTPHandlerImpl) SelectAdultSupplement(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sex, err := diagnosis.ParseSex(query.Get("sex"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "sex must be MALE or FEMALE")
		return
	}

	anemic, err := parseBoolParam(query.Get("anemic"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "anemic must be true or false")
		return
	}

	pregnantOrLactating, err := parseBoolParam(query.Get("pregnant_or_lactating"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "pregnant_or_lactating must be true or false")
		return
	}

	sku, err := dosing.SelectAdultSupplement(sex, anemic, pregnantOrLactating)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}

	response := map[string]any{"supplement_id": sku}
	if supplement, ok := h.dataStore.GetSupplementsMap()[sku]; ok {
		response["supplement"] = supplement
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

func parseBoolParam(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

// ServeSupplements returns the catalog, optionally filtered by formulation
func (h *HTTPHandlerImpl) ServeSupplements(w http.ResponseWriter, r *http.Request) {
	supplements := h.dataStore.GetSupplements()

	raw := r.URL.Query().Get("formulation")
	if raw == "" {
		h.RespondWithJSON(w, http.StatusOK, supplements)
		return
	}

	formulation, err := entities.ParseFormulation(raw)
	if err != nil {
		logging.Warn("Unusual user input", "formulation", raw)
		h.RespondWithError(w, http.StatusBadRequest, "formulation must be one of TABLET, SYRUP, DROPS, POWDER")
		return
	}

	// Always return 200 with results array (empty if no matches)
	results := make([]entities.Supplement, 0)
	for _, supplement := range supplements {
		if supplement.Formulation == formulation {
			results = append(results, supplement)
		}
	}

	h.RespondWithJSON(w, http.StatusOK, results)
}

// FindSupplementByID returns one supplement with its dosing guidelines
func (h *HTTPHandlerImpl) FindSupplementByID(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateSupplementID(chi.URLParam(r, "id"))
	if err != nil {
		logging.Warn("Unusual user input", "id", chi.URLParam(r, "id"))
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	supplement, err := h.service.FindSupplement(id)
	if err != nil {
		h.RespondWithError(w, http.StatusNotFound, "Supplement not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, supplement)
}

// FindLocation returns the altitude and hemoglobin correction of a place
func (h *HTTPHandlerImpl) FindLocation(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid location name")
		return
	}

	if err := h.validator.ValidateInput(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	location, err := h.service.FindLocation(name)
	if err != nil {
		h.RespondWithError(w, http.StatusNotFound, "Location not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, location)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// pregnancyStatuses lists the accepted values of pregnancy.status
var pregnancyStatuses = []diagnosis.PregnancyStatus{
	diagnosis.PregnancyNone,
	diagnosis.PregnancyPregnant,
	diagnosis.PregnancyPostpartum,
}

func validPregnancyStatus(status diagnosis.PregnancyStatus) bool {
	return status == "" || slices.Contains(pregnancyStatuses, status)
}
