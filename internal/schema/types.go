// Package schema defines the CSV layouts accepted by the validator.
package schema

// FieldType represents the expected data type for a CSV column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// String returns a human-readable name for the field type.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldNumeric:
		return "numeric"
	default:
		return "value"
	}
}

// FieldSpec describes a single CSV column.
type FieldSpec struct {
	Name string    // Column header name (must match CSV exactly)
	Type FieldType // Expected data type
}

// NumericColumn identifies a column whose cells must parse as a decimal.
type NumericColumn struct {
	Index int    `json:"index"` // 0-based position in the row
	Name  string `json:"name"`
}
