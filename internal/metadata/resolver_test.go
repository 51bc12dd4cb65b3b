package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emso-eric/geo2coverage/internal/models"
)

func attributeTable(rows [][]any) models.Table {
	return models.Table{
		ColumnNames: []string{"Row Type", "Variable Name", "Attribute Name", "Data Type", "Value"},
		Rows:        rows,
	}
}

func TestNewResolver_MalformedTable(t *testing.T) {
	_, err := NewResolver(models.Table{ColumnNames: []string{"a", "b"}}, "")
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestLookup_DefaultFallback(t *testing.T) {
	r, err := NewResolver(attributeTable([][]any{
		{"attribute", "TEMP", "units", "String", "degree_Celsius"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, "degree_Celsius", r.Lookup("TEMP", "units", "fallback"))
	assert.Equal(t, "fallback", r.Lookup("TEMP", "standard_name", "fallback"))
	assert.Equal(t, "", r.Lookup("PSAL", "units", ""))
}

func TestLookup_FirstOccurrenceWins(t *testing.T) {
	r, err := NewResolver(attributeTable([][]any{
		{"attribute", "TEMP", "units", "String", "degree_Celsius"},
		{"attribute", "TEMP", "units", "String", "kelvin"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, "degree_Celsius", r.Lookup("TEMP", "units", ""))
}

func TestResolve_FullyAttributed(t *testing.T) {
	r, err := NewResolver(attributeTable([][]any{
		{"attribute", "TEMP", "standard_name", "String", "sea_water_temperature"},
		{"attribute", "TEMP", "units", "String", "degree_Celsius"},
		{"attribute", "TEMP", "sdn_parameter_urn", "String", "SDN:P01::TEMPPR01"},
	}), "")
	require.NoError(t, err)

	meta, err := r.Resolve("TEMP")
	require.NoError(t, err)
	assert.Equal(t, "sea_water_temperature", meta.Name)
	assert.Equal(t, "degree_Celsius", meta.Units)
	assert.Equal(t, "http://vocab.nerc.ac.uk/collection/P01/current/TEMPPR01/", meta.Definition)
}

func TestResolve_FallbacksForUnknownVariable(t *testing.T) {
	r, err := NewResolver(attributeTable(nil), "")
	require.NoError(t, err)

	meta, err := r.Resolve("DEPTH")
	require.NoError(t, err)
	assert.Equal(t, "DEPTH", meta.Name, "standard name falls back to the column name")
	assert.Equal(t, "", meta.Units)
	assert.Equal(t, "", meta.Definition)
}

func TestResolve_MalformedVocabCodeDegrades(t *testing.T) {
	r, err := NewResolver(attributeTable([][]any{
		{"attribute", "TEMP", "sdn_parameter_urn", "String", "not-a-urn"},
	}), "")
	require.NoError(t, err)

	meta, err := r.Resolve("TEMP")
	assert.ErrorIs(t, err, ErrMalformedVocabCode)
	assert.Equal(t, "TEMP", meta.Name, "meta stays usable")
	assert.Equal(t, "", meta.Definition)
}

func TestVocabURI_RoundTrip(t *testing.T) {
	uri, err := VocabURI(DefaultVocabHost, "P01:SDN:PARAM:TEMP01")
	require.NoError(t, err)
	assert.Equal(t, "http://vocab.nerc.ac.uk/collection/SDN/current/TEMP01/", uri)
}

func TestVocabURI_SegmentCount(t *testing.T) {
	for _, code := range []string{"", "a:b:c", "a:b:c:d:e", "nocolons"} {
		_, err := VocabURI(DefaultVocabHost, code)
		assert.ErrorIs(t, err, ErrMalformedVocabCode, "code %q", code)
	}
}

func TestResolve_NumericAttributeValue(t *testing.T) {
	r, err := NewResolver(attributeTable([][]any{
		{"attribute", "DEPTH", "units", "String", float64(20)},
	}), "")
	require.NoError(t, err)
	assert.Equal(t, "20", r.Lookup("DEPTH", "units", ""))
}
