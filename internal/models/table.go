package models

// Table is a rectangular result set from an ERDDAP tabular endpoint:
// ordered rows over named columns. Cell values are whatever the JSON
// decoder produced (float64 for numbers, string for timestamps, nil for
// missing values).
type Table struct {
	ColumnNames []string
	Rows        [][]any
}

// NumRows returns the number of data rows.
func (t Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.ColumnNames {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns the values of the named column in row order. Rows shorter
// than the column position contribute nil. The second return is false when
// the column does not exist.
func (t Table) Column(name string) ([]any, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			values[r] = row[i]
		}
	}
	return values, true
}

// VariableMeta describes one data column after controlled-vocabulary
// resolution against the dataset's attribute table.
type VariableMeta struct {
	// Name is the standard_name attribute, falling back to the raw column name.
	Name string `json:"name"`
	// Units is the units attribute, empty when the dataset declares none.
	Units string `json:"units"`
	// Definition is the dereferenceable vocabulary URI derived from the
	// sdn_parameter_urn attribute. Empty when no standard mapping exists.
	Definition string `json:"definition,omitempty"`
}
