package api

import (
	"fleet-route-optimizer/internal/api/handlers"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/ports"
	"fleet-route-optimizer/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the HTTP layer needs.
// Geocoder may be nil, in which case uploads keep missing coordinates empty.
type Dependencies struct {
	Optimizer ports.Optimizer
	Scenarios *services.ScenarioService
	Parser    ports.InputParser
	Exporter  ports.ResultExporter
	Geocoder  ports.Geocoder
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{Optimizer: deps.Optimizer}
	uploadHandler := &handlers.UploadHandler{Parser: deps.Parser, Geocoder: deps.Geocoder}
	exportHandler := &handlers.ExportHandler{Exporter: deps.Exporter}
	scenarioHandler := &handlers.ScenarioHandler{Service: deps.Scenarios}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/{$}", handlers.Root)
	mux.HandleFunc("/api/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/api/optimize/ws", optimizeHandler.OptimizeStream)
	mux.HandleFunc("/api/upload-excel", uploadHandler.UploadExcel)
	mux.HandleFunc("/api/export-results", exportHandler.ExportResults)

	mux.HandleFunc("/api/scenarios", scenarioHandler.Collection)
	mux.HandleFunc("/api/scenarios/compare", scenarioHandler.Compare)
	mux.HandleFunc("/api/scenarios/{id}", scenarioHandler.Item)
	mux.HandleFunc("/api/scenarios/{id}/duplicate", scenarioHandler.Duplicate)
	mux.HandleFunc("/api/scenarios/{id}/optimize", scenarioHandler.Optimize)

	return requestIDMiddleware(loggingMiddleware(mux))
}
