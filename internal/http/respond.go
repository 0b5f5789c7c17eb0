package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// statusFor maps a catalog outcome kind to its HTTP status.
func statusFor(kind catalog.Kind) int {
	switch kind {
	case catalog.KindValid, catalog.KindRated:
		return http.StatusOK
	case catalog.KindCreated:
		return http.StatusCreated
	case catalog.KindUpdated, catalog.KindDeleted:
		return http.StatusNoContent
	case catalog.KindMalformedInput, catalog.KindIdentifierMismatch:
		return http.StatusBadRequest
	case catalog.KindUnknownDirector, catalog.KindUnknownCategory, catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindDuplicateIdentifier:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondOutcome writes the error envelope for a failed outcome.
func (s *Server) respondOutcome(w http.ResponseWriter, out catalog.Outcome) {
	status := statusFor(out.Kind)
	message := out.Message
	if status == http.StatusInternalServerError && message == "" {
		message = http.StatusText(status)
	}
	s.respondError(w, status, strings.ToUpper(string(out.Kind)), message)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "MALFORMED_INPUT", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "Unable to parse request body")
	}
}
