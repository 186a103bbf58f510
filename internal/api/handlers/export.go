package handlers

import (
	"bytes"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"log"
	"net/http"
	"strconv"
)

type ExportHandler struct {
	Exporter ports.ResultExporter
}

// ExportResults renders an output document as an xlsx workbook.
func (h *ExportHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var res domain.OptimizationResult
	if err := decodeStrict(w, r, &res); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.Exporter.ExportResult(&buf, &res); err != nil {
		writeServiceError(w, r, "export_results", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="optimization_results.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("req_id=%s op=export_results err=%v", obs.RequestID(r.Context()), err)
	}
}
