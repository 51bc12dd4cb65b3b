package covjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emso-eric/geo2coverage/internal/models"
)

func sampleTable() models.Table {
	return models.Table{
		ColumnNames: []string{"time", "latitude", "longitude", "TEMP"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 41.18, 1.75, 13.2},
			{"2024-05-01T00:00:00Z", 41.18, 1.75, 13.3},
			{"2024-05-01T01:00:00Z", 41.20, 1.77, 13.5},
		},
	}
}

func sampleMeta() map[string]models.VariableMeta {
	return map[string]models.VariableMeta{
		"TEMP": {
			Name:       "sea_water_temperature",
			Units:      "degree_Celsius",
			Definition: "http://vocab.nerc.ac.uk/collection/P01/current/TEMPPR01/",
		},
	}
}

func TestAssemble_EndToEnd(t *testing.T) {
	doc, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)

	assert.Equal(t, TypeCoverage, doc.Type)
	assert.Equal(t, DomainTypePointSeries, doc.Domain.DomainType)

	// Two rows share a time value, so the temporal axis has two entries.
	require.Len(t, doc.Domain.Axes.T.Values, 2)
	assert.Equal(t, "2024-05-01T00:00:00Z", doc.Domain.Axes.T.Values[0])
	assert.Equal(t, "2024-05-01T01:00:00Z", doc.Domain.Axes.T.Values[1])

	temp, ok := doc.Ranges["TEMP"]
	require.True(t, ok)
	assert.Equal(t, []int{2}, temp.Shape)
	assert.Equal(t, []any{13.2, 13.5}, temp.Values, "first occurrence wins on duplicate time")

	wantLon := (1.75 + 1.77) / 2
	wantLat := (41.18 + 41.20) / 2
	require.Len(t, doc.Location.Coordinates, 2)
	assert.InDelta(t, wantLon, doc.Location.Coordinates[0], 1e-9)
	assert.InDelta(t, wantLat, doc.Location.Coordinates[1], 1e-9)
	assert.Equal(t, []any{doc.Location.Coordinates[0]}, doc.Domain.Axes.X.Values)
	assert.Equal(t, []any{doc.Location.Coordinates[1]}, doc.Domain.Axes.Y.Values)
}

func TestAssemble_DedupIdempotence(t *testing.T) {
	first, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)

	deduped := models.Table{
		ColumnNames: []string{"time", "latitude", "longitude", "TEMP"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 41.18, 1.75, 13.2},
			{"2024-05-01T01:00:00Z", 41.20, 1.77, 13.5},
		},
	}
	second, err := Assemble(deduped, sampleMeta())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssemble_ShapeInvariant(t *testing.T) {
	table := models.Table{
		ColumnNames: []string{"time", "latitude", "longitude", "TEMP", "PSAL", "CNDC"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 41.18, 1.75, 13.2, 38.1, 4.5},
			{"2024-05-01T01:00:00Z", 41.18, 1.75, 13.5, 38.2, 4.6},
			{"2024-05-01T01:00:00Z", 41.18, 1.75, 13.6, 38.3, 4.7},
			{"2024-05-01T02:00:00Z", 41.18, 1.75, 13.4, 38.0, 4.4},
		},
	}
	doc, err := Assemble(table, nil)
	require.NoError(t, err)

	n := len(doc.Domain.Axes.T.Values)
	require.Equal(t, 3, n)
	require.Len(t, doc.Ranges, 3)
	for name, rng := range doc.Ranges {
		assert.Equal(t, []int{n}, rng.Shape, "range %s", name)
		assert.Len(t, rng.Values, n, "range %s", name)
	}
}

func TestAssemble_PositionalColumnsExcluded(t *testing.T) {
	doc, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)

	for _, excluded := range []string{"time", "latitude", "longitude"} {
		_, inParams := doc.Parameters[excluded]
		_, inRanges := doc.Ranges[excluded]
		assert.False(t, inParams, "%s must not be a parameter", excluded)
		assert.False(t, inRanges, "%s must not be a range", excluded)
	}
}

func TestAssemble_ParameterDescriptor(t *testing.T) {
	doc, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)

	p, ok := doc.Parameters["TEMP"]
	require.True(t, ok)
	assert.Equal(t, TypeParameter, p.Type)
	assert.Equal(t, "sea_water_temperature", p.Description.En)
	assert.Equal(t, "degree_Celsius", p.Unit.Symbol)
	assert.Equal(t, "degree_Celsius", p.Unit.Label.En)
	assert.Equal(t, "http://vocab.nerc.ac.uk/collection/P01/current/TEMPPR01/", p.ObservedProperty.ID)
	assert.Equal(t, "sea_water_temperature", p.ObservedProperty.Label.En)
}

func TestAssemble_UnresolvedVariableFallsBackToColumnName(t *testing.T) {
	doc, err := Assemble(sampleTable(), nil)
	require.NoError(t, err)

	p, ok := doc.Parameters["TEMP"]
	require.True(t, ok)
	assert.Equal(t, "TEMP", p.Description.En)
	assert.Equal(t, "", p.ObservedProperty.ID, "no vocabulary mapping, id omitted")
}

func TestAssemble_Referencing(t *testing.T) {
	doc, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)

	require.Len(t, doc.Domain.Referencing, 2)
	geo := doc.Domain.Referencing[0]
	assert.Equal(t, []string{"x", "y"}, geo.Coordinates)
	assert.Equal(t, "GeographicCRS", geo.System.Type)
	assert.Equal(t, "http://www.opengis.net/def/crs/OGC/1.3/CRS84", geo.System.ID)

	temporal := doc.Domain.Referencing[1]
	assert.Equal(t, []string{"t"}, temporal.Coordinates)
	assert.Equal(t, "TemporalRS", temporal.System.Type)
	assert.Equal(t, "Gregorian", temporal.System.Calendar)
}

func TestAssemble_EmptyTable(t *testing.T) {
	_, err := Assemble(models.Table{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = Assemble(models.Table{ColumnNames: []string{"time"}}, nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestAssemble_NoTimeColumn(t *testing.T) {
	table := models.Table{
		ColumnNames: []string{"latitude", "longitude", "TEMP"},
		Rows:        [][]any{{41.18, 1.75, 13.2}},
	}
	_, err := Assemble(table, nil)
	assert.ErrorIs(t, err, ErrNoTimeColumn)
}

func TestAssemble_NoPositionColumns(t *testing.T) {
	table := models.Table{
		ColumnNames: []string{"time", "TEMP"},
		Rows:        [][]any{{"2024-05-01T00:00:00Z", 13.2}},
	}
	_, err := Assemble(table, nil)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestAssemble_NonNumericPosition(t *testing.T) {
	table := models.Table{
		ColumnNames: []string{"time", "latitude", "longitude", "TEMP"},
		Rows:        [][]any{{"2024-05-01T00:00:00Z", "n/a", "n/a", 13.2}},
	}
	_, err := Assemble(table, nil)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestAssemble_NullCellsPassThrough(t *testing.T) {
	table := models.Table{
		ColumnNames: []string{"time", "latitude", "longitude", "TEMP"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 41.18, 1.75, nil},
			{"2024-05-01T01:00:00Z", 41.18, 1.75, 13.5},
		},
	}
	doc, err := Assemble(table, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, 13.5}, doc.Ranges["TEMP"].Values)
}

func TestAssemble_Deterministic(t *testing.T) {
	a, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)
	b, err := Assemble(sampleTable(), sampleMeta())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
