// Package handlers agrupa os handlers HTTP de cotação e de estações.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/draff227/bslc/internal/adapters/http/middleware"
	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const maxBodyBytes = 1 << 20

type calculatePriceRequest struct {
	PickupStationID      int64   `json:"pickupStationId"`
	DestinationStationID int64   `json:"destinationStationId"`
	Volume               float64 `json:"volume"`
	Collateral           float64 `json:"collateral"`
}

type publicCalculateRequest struct {
	PickupStationID      int64   `json:"pickupStationId"`
	PickupSystemID       int64   `json:"pickupSystemId"`
	DestinationStationID int64   `json:"destinationStationId"`
	DestinationSystemID  int64   `json:"destinationSystemId"`
	Volume               float64 `json:"volume"`
	Collateral           float64 `json:"collateral"`
}

type stationsResponse struct {
	Stations []domain.Station `json:"stations"`
}

type PriceHandler struct {
	calculator ports.PriceCalculator
	logger     *zap.Logger
}

func NewPriceHandler(calculator ports.PriceCalculator, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{calculator: calculator, logger: logger}
}

// CalculatePrice atende a API interna, que recebe apenas ids de estação.
func (h *PriceHandler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req calculatePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.calculator.Calculate(domain.QuoteRequest{
		PickupStationID:      req.PickupStationID,
		DestinationStationID: req.DestinationStationID,
		Volume:               req.Volume,
		Collateral:           req.Collateral,
	})
	if err != nil {
		h.writeCalculationError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// PublicCalculate aceita id de estação ou de sistema em cada ponta.
func (h *PriceHandler) PublicCalculate(w http.ResponseWriter, r *http.Request) {
	var req publicCalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.calculator.CalculatePublic(domain.PublicQuoteRequest{
		PickupStationID:      req.PickupStationID,
		PickupSystemID:       req.PickupSystemID,
		DestinationStationID: req.DestinationStationID,
		DestinationSystemID:  req.DestinationSystemID,
		Volume:               req.Volume,
		Collateral:           req.Collateral,
	})
	if err != nil {
		h.writeCalculationError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (h *PriceHandler) PublicStations(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, stationsResponse{Stations: h.calculator.Stations()})
}

func Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "not_found", "resource not found")
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func (h *PriceHandler) writeCalculationError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	h.logger.Error("price calculation failed",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// The body must hold a single JSON value.
		if err = dec.Decode(&struct{}{}); err == io.EOF {
			return true
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body is too large")
		return false
	}
	respondError(w, http.StatusBadRequest, "validation_error", "request body must be valid JSON")
	return false
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]any{
		"error":      code,
		"message":    message,
		"statusCode": status,
	})
}
