package core

// validation.go provides the structural and field checks run on a parsed file.
//
// Validation happens at two levels:
//  1. Header validation: column count, then names position by position
//  2. Field validation: every numeric column of every data row must parse
//
// Both stop at the first violation.

import (
	"github.com/JonMunkholm/csvgate/internal/schema"
)

// firstDataRow is the CSV row number of the first data row (row 1 is the header).
const firstDataRow = 2

// ValidateStructure checks that header matches specs exactly: same number of
// columns, same names, same order.
func ValidateStructure(header []string, specs []schema.FieldSpec) error {
	if len(header) != len(specs) {
		return newError(KindStructureMismatch, msgColumnCount, len(specs), len(header))
	}

	for i, spec := range specs {
		if header[i] != spec.Name {
			pe := newError(KindStructureMismatch, msgColumnMismatch, spec.Name, header[i])
			pe.Column = spec.Name
			pe.Position = i + 1
			return pe
		}
	}
	return nil
}

// ValidateFields checks that every numeric column of every row holds a
// decimal value. A row too short to contain a column is treated as holding
// an empty value.
func ValidateFields(rows [][]string, specs []schema.FieldSpec) error {
	cols := schema.NumericColumns(specs)

	for i, row := range rows {
		rowNum := i + firstDataRow
		for _, col := range cols {
			var raw string
			if col.Index < len(row) {
				raw = row[col.Index]
			}
			if !ToNumeric(raw).Valid {
				pe := newError(KindDataValidation, msgBadValue, rowNum, col.Name)
				pe.Row = rowNum
				pe.Column = col.Name
				return pe
			}
		}
	}
	return nil
}
