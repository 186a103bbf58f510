package handlers

import (
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/ports"
	"net/http"
)

type OptimizeHandler struct {
	Optimizer ports.Optimizer
}

// Optimize runs the allocation engine on an input document and returns the output document.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var doc domain.InputDocument
	if err := decodeStrict(w, r, &doc); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Optimizer.Optimize(r.Context(), doc)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}
