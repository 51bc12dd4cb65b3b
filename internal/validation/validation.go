package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Bounds for dataset identifiers. ERDDAP IDs are short word-like tokens;
// anything longer is a malformed or hostile path segment.
const (
	MinDatasetIDLength = 1
	MaxDatasetIDLength = 120
)

var (
	ErrEmptyDatasetID   = errors.New("dataset id is required")
	ErrDatasetIDTooLong = errors.New("dataset id too long")
	ErrInvalidDatasetID = errors.New("dataset id contains invalid characters")
)

// ValidateDatasetID checks a dataset identifier before it is interpolated
// into upstream URLs. Allowed characters: letters, digits, underscore,
// hyphen and dot (not leading).
func ValidateDatasetID(id string) error {
	id = strings.TrimSpace(id)
	if len(id) < MinDatasetIDLength {
		return ErrEmptyDatasetID
	}
	if len(id) > MaxDatasetIDLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrDatasetIDTooLong, len(id), MaxDatasetIDLength)
	}
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		case r == '-' || r == '.':
			if i == 0 {
				return fmt.Errorf("%w: leading %q", ErrInvalidDatasetID, r)
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidDatasetID, r)
		}
	}
	return nil
}
