package handler

import (
	"encoding/json"
	"net/http"

	"github.com/uyirthuli/donor-match-service/internal/adapters/middleware"
	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

type RequestHandler struct {
	matching  ports.MatchingService
	lifecycle ports.LifecycleService
}

func NewRequestHandler(matching ports.MatchingService, lifecycle ports.LifecycleService) *RequestHandler {
	return &RequestHandler{matching: matching, lifecycle: lifecycle}
}

type CreateRequestBody struct {
	BloodType   string   `json:"bloodType"`
	Rh          string   `json:"rh"`
	Urgency     string   `json:"urgency"`
	UnitsNeeded int      `json:"unitsNeeded"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusKm    float64  `json:"radiusKm"`
	MaxMatches  int      `json:"maxMatches"`
}

type RequestResponse struct {
	Request *domain.EmergencyRequest `json:"request"`
	Matches []domain.RequestMatch    `json:"matches"`
}

// Create runs the full matching pipeline for a new emergency request
// and returns the ranked matches persisted in NOTIFIED state. An empty
// match list is still a 201.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req, matches, err := h.matching.MatchRequest(r.Context(), ports.CreateRequestInput{
		RequesterID: callerID,
		BloodType:   body.BloodType,
		Rh:          body.Rh,
		Urgency:     body.Urgency,
		UnitsNeeded: body.UnitsNeeded,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		RadiusKm:    body.RadiusKm,
		MaxMatches:  body.MaxMatches,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RequestResponse{Request: req, Matches: matches})
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, matches, err := h.lifecycle.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RequestResponse{Request: req, Matches: matches})
}

func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	match, err := h.lifecycle.Accept(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *RequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	match, err := h.lifecycle.Decline(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	if err := h.lifecycle.Cancel(r.Context(), callerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.RequestCanceled)})
}

// Fulfill is invoked by the requester's donation-confirmation flow
// once the donor arrived and the donation is verified.
func (h *RequestHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	if err := h.lifecycle.Fulfill(r.Context(), callerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.RequestFulfilled)})
}

type AdvanceBody struct {
	Status string `json:"status"`
}

func (h *RequestHandler) Advance(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing caller identity"})
		return
	}

	var body AdvanceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	next, err := domain.ParseMatchStatus(body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := h.lifecycle.Advance(r.Context(), callerID, r.PathValue("id"), next)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
