package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-route-optimizer/internal/api/dto"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const maxJSONBody = 10 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// allowMethods writes 405 and returns false unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeStrict reads exactly one JSON value into v, rejecting unknown fields.
func decodeStrict(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON value")
	}
	return nil
}

// errorStatus maps a service error to an HTTP status and client message.
func errorStatus(err error) (int, dto.ErrorResponse) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrValidation.Error(), Details: ve.Problems}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: "not found"}
	case errors.Is(err, domain.ErrInfeasible):
		return http.StatusUnprocessableEntity, dto.ErrorResponse{Error: domain.ErrInfeasible.Error()}
	case errors.Is(err, domain.ErrSolverUnavailable):
		return http.StatusServiceUnavailable, dto.ErrorResponse{Error: domain.ErrSolverUnavailable.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.ErrorResponse{Error: "optimization timed out"}
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, dto.ErrorResponse{Error: "request canceled"}
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errorStatus(err)
	log.Printf("req_id=%s op=%s status=%d err=%v", obs.RequestID(r.Context()), op, status, err)
	writeJSON(w, r, status, body)
}
