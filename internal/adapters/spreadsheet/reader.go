package spreadsheet

import (
	"fleet-route-optimizer/internal/domain"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	SheetCities     = "Cities"
	SheetRouteCity  = "Route_Cities"
	SheetRouteTruck = "Route_TruckTypes"
)

// WorkbookReader parses the three-sheet input workbook:
//
//	Cities           city, demand[, lat, long]
//	Route_Cities     route, city
//	Route_TruckTypes route, truck_type, capacity, cost
//
// Headers are matched case-insensitively and may appear in any order.
// Cross-references between sheets are left to input validation.
type WorkbookReader struct{}

func NewWorkbookReader() *WorkbookReader { return &WorkbookReader{} }

// ParseInput returns an input document. Malformed workbooks yield an error
// wrapping domain.ErrValidation.
func (WorkbookReader) ParseInput(r io.Reader) (domain.InputDocument, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.InputDocument{}, invalid("open workbook: %v", err)
	}
	defer f.Close()

	doc := domain.InputDocument{Routes: map[string][]string{}}

	cities, err := readSheet(f, SheetCities, "city", "demand")
	if err != nil {
		return domain.InputDocument{}, err
	}
	_, hasLat := cities.cols["lat"]
	_, hasLong := cities.cols["long"]
	for _, row := range cities.rows {
		id := row.get("city")
		demand, err := row.float("demand")
		if err != nil {
			return domain.InputDocument{}, err
		}
		c := domain.City{ID: id, Demand: demand}
		if hasLat && hasLong {
			lat, latOK, err := row.optionalFloat("lat")
			if err != nil {
				return domain.InputDocument{}, err
			}
			long, longOK, err := row.optionalFloat("long")
			if err != nil {
				return domain.InputDocument{}, err
			}
			if latOK && longOK {
				c.SetCoordinates(domain.Coordinates{Lat: lat, Lon: long})
			}
		}
		doc.Cities = append(doc.Cities, c)
	}

	members, err := readSheet(f, SheetRouteCity, "route", "city")
	if err != nil {
		return domain.InputDocument{}, err
	}
	for _, row := range members.rows {
		route := row.get("route")
		doc.Routes[route] = append(doc.Routes[route], row.get("city"))
	}

	options, err := readSheet(f, SheetRouteTruck, "route", "truck_type", "capacity", "cost")
	if err != nil {
		return domain.InputDocument{}, err
	}
	for _, row := range options.rows {
		capacity, err := row.integer("capacity")
		if err != nil {
			return domain.InputDocument{}, err
		}
		cost, err := row.integer("cost")
		if err != nil {
			return domain.InputDocument{}, err
		}
		doc.RouteTruckOptions = append(doc.RouteTruckOptions, domain.RouteTruckOption{
			RouteID:   row.get("route"),
			TruckType: row.get("truck_type"),
			Capacity:  capacity,
			Cost:      cost,
		})
	}

	return doc, nil
}

type table struct {
	cols map[string]int
	rows []record
}

type record struct {
	sheet string
	line  int
	cols  map[string]int
	cells []string
}

func readSheet(f *excelize.File, sheet string, required ...string) (*table, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, invalid("missing sheet %q", sheet)
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, invalid("read sheet %q: %v", sheet, err)
	}
	if len(raw) == 0 {
		return nil, invalid("sheet %q has no header row", sheet)
	}

	t := &table{cols: make(map[string]int, len(raw[0]))}
	for i, h := range raw[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := t.cols[key]; !dup {
			t.cols[key] = i
		}
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return nil, invalid("sheet %q: missing column %q", sheet, col)
		}
	}

	for i, cells := range raw[1:] {
		if blank(cells) {
			continue
		}
		t.rows = append(t.rows, record{sheet: sheet, line: i + 2, cols: t.cols, cells: cells})
	}
	return t, nil
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) float(col string) (float64, error) {
	v, ok, err := r.optionalFloat(col)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, invalid("%s row %d: %s is empty", r.sheet, r.line, col)
	}
	return v, nil
}

func (r record) optionalFloat(col string) (float64, bool, error) {
	s := r.get(col)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, invalid("%s row %d: %s %q is not a number", r.sheet, r.line, col, s)
	}
	return v, true, nil
}

func (r record) integer(col string) (int, error) {
	v, err := r.float(col)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, invalid("%s row %d: %s %v is not an integer", r.sheet, r.line, col, v)
	}
	return int(v), nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("parse workbook: %w", domain.NewValidationError([]string{fmt.Sprintf(format, args...)}))
}
