package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/emso-eric/geo2coverage/internal/models"
)

// DefaultVocabHost serves the NERC Vocabulary Server collections that
// sdn_parameter_urn codes resolve against.
const DefaultVocabHost = "vocab.nerc.ac.uk"

// Fixed columns of the ERDDAP info endpoint's attribute table.
const (
	colVariable  = "Variable Name"
	colAttribute = "Attribute Name"
	colValue     = "Value"
)

// Attributes extracted per variable.
const (
	attrStandardName = "standard_name"
	attrUnits        = "units"
	attrParameterURN = "sdn_parameter_urn"
)

var (
	// ErrMalformedTable means the attribute table is missing one of its
	// fixed columns and no lookups are possible.
	ErrMalformedTable = errors.New("metadata: malformed attribute table")
	// ErrMalformedVocabCode means an sdn_parameter_urn value does not have
	// exactly four colon-separated segments.
	ErrMalformedVocabCode = errors.New("metadata: malformed vocabulary code")
)

type attrKey struct {
	variable  string
	attribute string
}

// Resolver answers (variable, attribute) lookups against a dataset's
// attribute table. Built once per fetched table as an index so per-column
// resolution is a map access instead of a row scan.
type Resolver struct {
	vocabHost string
	values    map[attrKey]string
}

// NewResolver indexes an attribute table. vocabHost falls back to
// DefaultVocabHost when empty. Returns ErrMalformedTable when the table
// lacks the Variable Name / Attribute Name / Value columns; missing rows
// are never an error. Duplicate (variable, attribute) pairs keep the
// first occurrence, matching upstream row order.
func NewResolver(t models.Table, vocabHost string) (*Resolver, error) {
	vi := t.ColumnIndex(colVariable)
	ai := t.ColumnIndex(colAttribute)
	xi := t.ColumnIndex(colValue)
	if vi < 0 || ai < 0 || xi < 0 {
		return nil, fmt.Errorf("%w: columns %v", ErrMalformedTable, t.ColumnNames)
	}
	if vocabHost == "" {
		vocabHost = DefaultVocabHost
	}

	values := make(map[attrKey]string, len(t.Rows))
	for _, row := range t.Rows {
		if vi >= len(row) || ai >= len(row) || xi >= len(row) {
			continue
		}
		key := attrKey{variable: cellString(row[vi]), attribute: cellString(row[ai])}
		if _, ok := values[key]; ok {
			continue
		}
		values[key] = cellString(row[xi])
	}
	return &Resolver{vocabHost: vocabHost, values: values}, nil
}

// Lookup returns the attribute value for the variable, or fallback when no
// such row exists.
func (r *Resolver) Lookup(variable, attribute, fallback string) string {
	if v, ok := r.values[attrKey{variable: variable, attribute: attribute}]; ok {
		return v
	}
	return fallback
}

// Resolve builds the VariableMeta for one data column: standard name
// (falling back to the raw column name), units (falling back to empty) and
// the vocabulary definition URI. A malformed vocabulary code is reported
// through the returned error while the meta stays usable with an empty
// definition; callers log it and carry on.
func (r *Resolver) Resolve(variable string) (models.VariableMeta, error) {
	meta := models.VariableMeta{
		Name:  r.Lookup(variable, attrStandardName, variable),
		Units: r.Lookup(variable, attrUnits, ""),
	}
	code := r.Lookup(variable, attrParameterURN, "")
	if code == "" {
		return meta, nil
	}
	uri, err := VocabURI(r.vocabHost, code)
	if err != nil {
		return meta, fmt.Errorf("variable %q: %w", variable, err)
	}
	meta.Definition = uri
	return meta, nil
}

// VocabURI rewrites a compact <scheme>:<vocab>:<version>:<term> code into a
// dereferenceable collection URI on the given vocabulary host.
func VocabURI(host, code string) (string, error) {
	parts := strings.Split(code, ":")
	if len(parts) != 4 {
		return "", fmt.Errorf("%w: %q", ErrMalformedVocabCode, code)
	}
	return fmt.Sprintf("http://%s/collection/%s/current/%s/", host, parts[1], parts[3]), nil
}

// cellString renders a table cell the way it appears in attribute values.
// The info endpoint serves strings, but numeric cells show up for datasets
// that declare numeric attributes.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
