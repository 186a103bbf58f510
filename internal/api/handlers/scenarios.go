package handlers

import (
	"fleet-route-optimizer/internal/api/dto"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/services"
	"net/http"
)

type ScenarioHandler struct {
	Service *services.ScenarioService
}

// Collection serves GET (list) and POST (create) on /api/scenarios.
func (h *ScenarioHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		h.list(w, r)
		return
	}
	h.create(w, r)
}

func (h *ScenarioHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_scenarios", err)
		return
	}

	out := make([]dto.ScenarioResponse, 0, len(list))
	for _, sc := range list {
		out = append(out, dto.NewScenarioResponse(sc))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *ScenarioHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScenarioRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sc := domain.Scenario{
		Name:                req.Name,
		Description:         req.Description,
		OptimizationResults: req.OptimizationResults,
	}
	if req.InputData != nil {
		sc.InputData = *req.InputData
	}

	created, err := h.Service.Create(r.Context(), sc)
	if err != nil {
		writeServiceError(w, r, "create_scenario", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewScenarioResponse(created))
}

// Item serves GET, PUT and DELETE on /api/scenarios/{id}.
func (h *ScenarioHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}

	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		sc, err := h.Service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, "get_scenario", err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.NewScenarioResponse(sc))

	case http.MethodPut:
		var req dto.UpdateScenarioRequest
		if err := decodeStrict(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		sc, err := h.Service.Update(r.Context(), id, req.Patch())
		if err != nil {
			writeServiceError(w, r, "update_scenario", err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.NewScenarioResponse(sc))

	case http.MethodDelete:
		if err := h.Service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, "delete_scenario", err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"message": "scenario deleted"})
	}
}

// Duplicate copies a scenario; the optional new_name query parameter names the copy.
func (h *ScenarioHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	sc, err := h.Service.Duplicate(r.Context(), r.PathValue("id"), r.URL.Query().Get("new_name"))
	if err != nil {
		writeServiceError(w, r, "duplicate_scenario", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewScenarioResponse(sc))
}

// Compare takes a JSON array of scenario ids.
func (h *ScenarioHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var ids []string
	if err := decodeStrict(w, r, &ids); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cmp, err := h.Service.Compare(r.Context(), ids)
	if err != nil {
		writeServiceError(w, r, "compare_scenarios", err)
		return
	}

	out := dto.CompareResponse{
		Scenarios:         make([]dto.ScenarioResponse, 0, len(cmp.Scenarios)),
		ComparisonMetrics: cmp.Metrics,
	}
	for _, sc := range cmp.Scenarios {
		out.Scenarios = append(out.Scenarios, dto.NewScenarioResponse(sc))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Optimize runs the engine on the stored input and saves the results.
func (h *ScenarioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	sc, err := h.Service.Optimize(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "optimize_scenario", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewScenarioResponse(sc))
}
