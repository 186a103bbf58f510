package ports

import (
	"fleet-route-optimizer/internal/domain"
	"io"
)

// Reads an input document from a spreadsheet.
type InputParser interface {
	ParseInput(r io.Reader) (domain.InputDocument, error)
}

// Renders an output document as a spreadsheet.
type ResultExporter interface {
	ExportResult(w io.Writer, result *domain.OptimizationResult) error
}
