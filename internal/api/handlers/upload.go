package handlers

import (
	"fleet-route-optimizer/internal/api/dto"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fleet-route-optimizer/internal/services"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadBody = 32 << 20

type UploadHandler struct {
	Parser ports.InputParser
	// Geocoder is optional; cities without coordinates stay empty when nil.
	Geocoder ports.Geocoder
}

// UploadExcel parses an input workbook into an input document.
func (h *UploadHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("missing upload field 'file': %v", err))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		writeError(w, r, http.StatusBadRequest, "only .xlsx files are accepted")
		return
	}

	doc, err := h.Parser.ParseInput(file)
	if err != nil {
		writeServiceError(w, r, "upload_excel", err)
		return
	}

	if _, err := services.FillMissingCoordinates(r.Context(), h.Geocoder, &doc); err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil {
			writeServiceError(w, r, "upload_excel", ctxErr)
			return
		}
		// Coordinates only feed the sequencer; the document is still usable without them.
		log.Printf("req_id=%s op=upload_excel warn=geocode_failed err=%v", obs.RequestID(r.Context()), err)
	}

	writeJSON(w, r, http.StatusOK, dto.UploadResponse{
		Success: true,
		Message: fmt.Sprintf("parsed %d cities and %d routes", len(doc.Cities), len(doc.Routes)),
		Data: dto.UploadSummary{
			CitiesCount: len(doc.Cities),
			RoutesCount: len(doc.Routes),
			TruckTypes:  doc.TruckTypes(),
		},
		FileData: doc,
	})
}
