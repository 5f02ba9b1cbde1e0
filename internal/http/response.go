package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"hostelhub-backend-go/internal/services"
)

type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

func WriteValidation(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: fields})
}

// mapServiceError writes the response for a ServiceError and reports whether
// it did.
func mapServiceError(w http.ResponseWriter, err error) bool {
	serr, ok := services.AsServiceError(err)
	if !ok {
		return false
	}
	WriteJSON(w, serr.Status, ErrorResponse{Message: serr.Message, Errors: serr.Fields})
	return true
}

// writeFailure answers with the embedded status of a ServiceError and a
// logged 500 for anything else.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if mapServiceError(w, err) {
		return
	}
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// decodeJSON decodes the body into dst and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeBody(r, dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	if errs := s.Validator.Struct(dst); len(errs) > 0 {
		WriteValidation(w, errs)
		return false
	}
	return true
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}
