package handler

import (
	"encoding/json"
	"net/http"

	"github.com/uyirthuli/donor-match-service/internal/adapters/middleware"
	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

type DonorHandler struct {
	donors ports.DonorService
}

func NewDonorHandler(donors ports.DonorService) *DonorHandler {
	return &DonorHandler{donors: donors}
}

type LocationBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *DonorHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	var body LocationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	loc := domain.Coordinates{Latitude: body.Latitude, Longitude: body.Longitude}
	if err := h.donors.UpdateLocation(r.Context(), callerID, loc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "location updated"})
}

type AvailabilityBody struct {
	Availability string `json:"availability"`
}

func (h *DonorHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	var body AvailabilityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.donors.UpdateAvailability(r.Context(), callerID, domain.Availability(body.Availability)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "availability updated"})
}
