package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDatasetID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"simple", "obsea_ctd_30min", nil},
		{"mixed case", "EMSO_Azores_CTD", nil},
		{"with hyphen and dot", "obsea-ctd.v2", nil},
		{"empty", "", ErrEmptyDatasetID},
		{"whitespace only", "   ", ErrEmptyDatasetID},
		{"too long", strings.Repeat("a", MaxDatasetIDLength+1), ErrDatasetIDTooLong},
		{"path traversal", "../secret", ErrInvalidDatasetID},
		{"leading dot", ".hidden", ErrInvalidDatasetID},
		{"slash", "a/b", ErrInvalidDatasetID},
		{"space inside", "obsea ctd", ErrInvalidDatasetID},
		{"query injection", "id?x=1", ErrInvalidDatasetID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetID(tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDatasetID(%q) = %v, want nil", tt.id, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDatasetID(%q) = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
