package covjson

import (
	"errors"
	"fmt"

	"github.com/emso-eric/geo2coverage/internal/models"
)

// Positional and temporal columns excluded from parameters/ranges.
const (
	timeColumn      = "time"
	latitudeColumn  = "latitude"
	longitudeColumn = "longitude"
)

var (
	// ErrEmptyTable means the data table holds no rows or columns; a
	// coverage needs at least one sample.
	ErrEmptyTable = errors.New("covjson: empty data table")
	// ErrNoTimeColumn means the data table lacks the time column that the
	// temporal axis is built from.
	ErrNoTimeColumn = errors.New("covjson: data table has no time column")
	// ErrNoPosition means latitude/longitude are missing or hold no
	// numeric values, so no spatial point can be derived.
	ErrNoPosition = errors.New("covjson: no usable latitude/longitude columns")
)

// Assemble builds a PointSeries coverage from a tabular result set and the
// per-column metadata resolved against the dataset's attribute table.
//
// Rows sharing a time value collapse to the first occurrence, input order
// preserved. The spatial position is the mean latitude/longitude over the
// deduplicated rows; the table is treated as a single fixed location with
// time-varying measurements (multi-location tables are out of scope).
// Every range array has length equal to the temporal axis. Output is
// deterministic for identical inputs.
func Assemble(t models.Table, meta map[string]models.VariableMeta) (*Coverage, error) {
	if len(t.ColumnNames) == 0 || t.NumRows() == 0 {
		return nil, ErrEmptyTable
	}
	ti := t.ColumnIndex(timeColumn)
	if ti < 0 {
		return nil, ErrNoTimeColumn
	}
	lati := t.ColumnIndex(latitudeColumn)
	loni := t.ColumnIndex(longitudeColumn)
	if lati < 0 || loni < 0 {
		return nil, ErrNoPosition
	}

	rows := dedupeByTime(t.Rows, ti)

	lon, err := columnMean(rows, loni, longitudeColumn)
	if err != nil {
		return nil, err
	}
	lat, err := columnMean(rows, lati, latitudeColumn)
	if err != nil {
		return nil, err
	}

	times := make([]any, len(rows))
	for i, row := range rows {
		times[i] = cell(row, ti)
	}

	parameters := make(map[string]Parameter)
	ranges := make(map[string]NdArray)
	for ci, name := range t.ColumnNames {
		switch name {
		case timeColumn, latitudeColumn, longitudeColumn:
			continue
		}
		m, ok := meta[name]
		if !ok {
			m = models.VariableMeta{Name: name}
		}

		parameters[name] = Parameter{
			Type:        TypeParameter,
			Description: LocalizedText{En: m.Name},
			Unit: Unit{
				Label:  LocalizedText{En: m.Units},
				Symbol: m.Units,
			},
			ObservedProperty: ObservedProperty{
				ID:    m.Definition,
				Label: LocalizedText{En: m.Name},
			},
		}

		values := make([]any, len(rows))
		for ri, row := range rows {
			values[ri] = cell(row, ci)
		}
		ranges[name] = NdArray{
			Type:      TypeNdArray,
			DataType:  "float",
			AxisNames: []string{"t"},
			Shape:     []int{len(rows)},
			Values:    values,
		}
	}

	return &Coverage{
		Type: TypeCoverage,
		Domain: Domain{
			Type:       TypeDomain,
			DomainType: DomainTypePointSeries,
			Axes: Axes{
				T: Axis{Values: times},
				X: Axis{Values: []any{lon}},
				Y: Axis{Values: []any{lat}},
			},
			Referencing: []Reference{
				{
					Coordinates: []string{"x", "y"},
					System: ReferenceSystem{
						Type: "GeographicCRS",
						ID:   geographicCRS84,
					},
				},
				{
					Coordinates: []string{"t"},
					System: ReferenceSystem{
						Type:     "TemporalRS",
						Calendar: gregorianCalendar,
					},
				},
			},
		},
		Parameters: parameters,
		Ranges:     ranges,
		Location: Point{
			Type:        TypePoint,
			Coordinates: []float64{lon, lat},
		},
	}, nil
}

// dedupeByTime keeps the first row per distinct time value, preserving
// input order.
func dedupeByTime(rows [][]any, ti int) [][]any {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		key := timeKey(cell(row, ti))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func timeKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// cell returns the value at column i, nil for ragged rows.
func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// columnMean averages the numeric cells of one column. Non-numeric cells
// are skipped the way NaNs are skipped in a column mean; a column with no
// numeric cells at all cannot anchor the spatial point.
func columnMean(rows [][]any, i int, name string) (float64, error) {
	var sum float64
	var n int
	for _, row := range rows {
		if f, ok := cell(row, i).(float64); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: column %q has no numeric values", ErrNoPosition, name)
	}
	return sum / float64(n), nil
}
