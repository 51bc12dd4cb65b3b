package models

import "testing"

func sample() Table {
	return Table{
		ColumnNames: []string{"time", "latitude", "TEMP"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 41.18, 13.2},
			{"2024-05-01T01:00:00Z", 41.18, 13.5},
		},
	}
}

func TestColumnIndex(t *testing.T) {
	tb := sample()
	if i := tb.ColumnIndex("TEMP"); i != 2 {
		t.Errorf("ColumnIndex(TEMP) = %d", i)
	}
	if i := tb.ColumnIndex("PSAL"); i != -1 {
		t.Errorf("ColumnIndex(PSAL) = %d", i)
	}
	if !tb.HasColumn("time") || tb.HasColumn("depth") {
		t.Error("HasColumn mismatch")
	}
}

func TestColumn(t *testing.T) {
	tb := sample()
	values, ok := tb.Column("TEMP")
	if !ok {
		t.Fatal("column not found")
	}
	if len(values) != 2 || values[0] != 13.2 || values[1] != 13.5 {
		t.Errorf("values = %v", values)
	}
	if _, ok := tb.Column("missing"); ok {
		t.Error("missing column reported found")
	}
}

func TestColumn_RaggedRows(t *testing.T) {
	tb := Table{
		ColumnNames: []string{"time", "TEMP"},
		Rows: [][]any{
			{"2024-05-01T00:00:00Z", 13.2},
			{"2024-05-01T01:00:00Z"},
		},
	}
	values, ok := tb.Column("TEMP")
	if !ok {
		t.Fatal("column not found")
	}
	if values[1] != nil {
		t.Errorf("short row cell = %v, want nil", values[1])
	}
}

func TestNumRows(t *testing.T) {
	if n := sample().NumRows(); n != 2 {
		t.Errorf("NumRows = %d", n)
	}
	if n := (Table{}).NumRows(); n != 0 {
		t.Errorf("empty NumRows = %d", n)
	}
}
