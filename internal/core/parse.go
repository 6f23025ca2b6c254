package core

// parse.go implements the first two pipeline stages: the existence check
// and decode-and-parse. The whole file is read and split into records
// before any validation runs.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
	"unicode/utf8"
)

// ParsedFile is the header row and data rows of a decoded CSV file.
type ParsedFile struct {
	Header []string
	Rows   [][]string
	Bytes  int64 // Bytes read from the source, BOM included
}

// checkFileExists verifies that path names a regular file.
func checkFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return &ProcessingError{
				Kind:   KindNotFound,
				Detail: fmt.Sprintf(msgNotFound, path),
				Err:    err,
			}
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return newError(KindInvalidFormat, msgNotAFile, path)
	}
	return nil
}

// readFile opens path and parses its contents. The file is closed before
// readFile returns.
func readFile(path string, maxBytes int64) (ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedFile{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return parseReader(f, maxBytes)
}

// parseReader decodes r as UTF-8 (optional BOM) and splits it into a header
// row and data rows. maxBytes <= 0 disables the size limit.
func parseReader(r io.Reader, maxBytes int64) (ParsedFile, error) {
	counter := NewCountingReader(r)

	var src io.Reader = NewBOMSkippingReader(counter)
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return ParsedFile{}, fmt.Errorf("read: %w", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ParsedFile{}, &ProcessingError{
			Kind:   KindInvalidFormat,
			Detail: msgTooLarge,
			Err:    ErrFileTooLarge,
		}
	}

	if !utf8.Valid(data) {
		return ParsedFile{}, &ProcessingError{
			Kind:   KindInvalidFormat,
			Detail: msgBadEncoding,
			Err:    ErrInvalidEncoding,
		}
	}

	records, err := parseCSV(data)
	if err != nil {
		return ParsedFile{}, err
	}

	// A blank first line is an empty header row, even though encoding/csv
	// would skip it and promote the next line.
	if len(records) == 0 || data[0] == '\n' || data[0] == '\r' {
		return ParsedFile{}, newError(KindEmptyFile, msgEmptyFile)
	}
	if len(records) == 1 {
		return ParsedFile{}, newError(KindEmptyFile, msgHeadersOnly)
	}

	return ParsedFile{
		Header: records[0],
		Rows:   records[1:],
		Bytes:  counter.BytesRead,
	}, nil
}

// parseCSV splits comma-separated data into records. Rows may differ in
// length; blank lines are skipped. Stray quotes inside a field are kept as
// literal characters, but a quoted field still open at end of input is an
// error.
func parseCSV(data []byte) ([][]string, error) {
	data = normalizeNewlines(data)
	if unterminatedQuote(data) {
		return nil, &ProcessingError{
			Kind:   KindInvalidFormat,
			Detail: msgCSVRead,
			Err:    ErrUnterminatedQuote,
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ','
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ProcessingError{
				Kind:   KindInvalidFormat,
				Detail: msgCSVRead,
				Err:    err,
			}
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// normalizeNewlines converts CRLF and lone CR line endings to LF, including
// inside quoted fields.
func normalizeNewlines(data []byte) []byte {
	if bytes.IndexByte(data, '\r') < 0 {
		return data
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}

// unterminatedQuote reports whether LF-terminated data ends inside a quoted
// field. It follows csv.Reader's LazyQuotes rules: a quote opens a field
// only as the field's first byte, and inside a quoted field a quote closes
// it only when followed by a comma, a newline or the end of input. Any other
// quote is literal.
func unterminatedQuote(data []byte) bool {
	inQuotes, fieldStart := false, true

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inQuotes {
			if c != '"' {
				continue
			}
			if i+1 == len(data) {
				return false
			}
			switch data[i+1] {
			case '"':
				i++
			case ',', '\n':
				inQuotes, fieldStart = false, true
				i++
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = fieldStart
			fieldStart = false
		case ',', '\n':
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return inQuotes
}
