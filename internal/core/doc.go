// Package core provides the validation pipeline for transaction CSV files.
//
// The pipeline is a fixed sequence of checks applied to one file. Each
// stage aborts the run on its first violation:
//
//  1. Existence: the path names a regular file
//  2. Decode and parse: UTF-8 (BOM stripped), comma-separated, header plus
//     at least one data row
//  3. Structure: header names and order equal the transaction schema
//  4. Fields: the amount columns of every data row hold decimals
//     (skipped in [ModeStructural])
//
// # Usage
//
//	p := core.NewProcessor(core.WithMode(core.ModeStrict))
//	out, err := p.ProcessData(ctx, "payments.csv")
//	if err != nil {
//	    // I/O failure, no verdict
//	}
//	fmt.Println(out.Message())
//
// # Error Handling
//
// Validation failures never surface as the returned error. They are
// reported in [Outcome.Err] as a [*ProcessingError] whose kind matches one
// of the sentinels ([ErrNotFound], [ErrInvalidFormat], [ErrEmptyFile],
// [ErrStructureMismatch], [ErrDataValidation]). [MapError] turns them into
// support codes for display.
package core
