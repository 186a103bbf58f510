package spreadsheet

import (
	"fleet-route-optimizer/internal/domain"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary    = "Summary"
	SheetRoutes     = "Routes"
	SheetDeliveries = "City Deliveries"
)

var (
	routesHeader = []any{
		"Route ID", "Truck Type", "Trucks Used", "Capacity", "Cost per Truck",
		"Total Cost", "Total Delivered", "Capacity Utilization %",
	}
	deliveriesHeader = []any{"Route ID", "Truck Type", "City", "Quantity Delivered", "City Demand"}
)

// WorkbookWriter renders an output document as a Summary / Routes / City Deliveries workbook.
type WorkbookWriter struct{}

func NewWorkbookWriter() *WorkbookWriter { return &WorkbookWriter{} }

func (WorkbookWriter) ExportResult(w io.Writer, result *domain.OptimizationResult) error {
	if result == nil {
		return fmt.Errorf("export workbook: %w", domain.NewValidationError([]string{"result is empty"}))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("export workbook: rename default sheet: %w", err)
	}
	for _, name := range []string{SheetRoutes, SheetDeliveries} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export workbook: create sheet %q: %w", name, err)
		}
	}

	m := result.SummaryMetrics
	summary := [][]any{
		{"Metric", "Value"},
		{"Total Cost", m.TotalCost},
		{"Total Trucks", m.TotalTrucks},
		{"Total Demand", m.TotalDemand},
		{"Total Capacity Used", m.TotalCapacityUsed},
		{"Routes Optimized", m.RoutesOptimized},
		{"Cities Served", m.CitiesServed},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	routes := [][]any{routesHeader}
	deliveries := [][]any{deliveriesHeader}
	for _, a := range result.RoutesSelected {
		routes = append(routes, []any{
			a.RouteID, a.TruckType, a.TrucksUsed, a.Capacity, a.CostPerTruck,
			a.TotalCost, a.TotalDelivered, a.CapacityUtilization,
		})
		for _, d := range a.CitiesDelivered {
			deliveries = append(deliveries, []any{a.RouteID, a.TruckType, d.City, d.Quantity, d.Demand})
		}
	}
	if err := writeRows(f, SheetRoutes, routes); err != nil {
		return err
	}
	if err := writeRows(f, SheetDeliveries, deliveries); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export workbook: write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export workbook: %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export workbook: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
