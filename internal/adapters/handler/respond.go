package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses:
// validation 400, unknown id 404, conflict 409 (with the reason code
// so the client can tell a lost race from a duplicate response),
// everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error()})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:  conflict.Message,
			Reason: string(conflict.Reason),
		})
		return
	}
	log.Printf("handler: internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
