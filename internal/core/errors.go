package core

// errors.go defines the failure taxonomy of the validation pipeline.
//
// Every stage reports failures as a *ProcessingError carrying a Kind. The
// kinds are also exposed as sentinel errors so callers can branch with
// errors.Is without inspecting message text:
//
//	if errors.Is(err, core.ErrStructureMismatch) { ... }
//
// Detail messages are preserved verbatim (in Russian) because downstream
// consumers match on them.

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidFormat
	KindEmptyFile
	KindStructureMismatch
	KindDataValidation
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFoundError"
	case KindInvalidFormat:
		return "InvalidFormatError"
	case KindEmptyFile:
		return "EmptyFileError"
	case KindStructureMismatch:
		return "StructureMismatchError"
	case KindDataValidation:
		return "DataValidationError"
	default:
		return "DataProcessingError"
	}
}

// Sentinel errors, one per Kind. A *ProcessingError matches the sentinel of
// its kind under errors.Is.
var (
	ErrNotFound          = errors.New("file not found")
	ErrInvalidFormat     = errors.New("invalid file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrStructureMismatch = errors.New("structure mismatch")
	ErrDataValidation    = errors.New("data validation failed")
)

// Causes attached to InvalidFormat failures.
var (
	ErrInvalidEncoding   = errors.New("encoding error: invalid UTF-8")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnterminatedQuote = errors.New("csv: quoted field not closed before end of file")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindEmptyFile:
		return ErrEmptyFile
	case KindStructureMismatch:
		return ErrStructureMismatch
	case KindDataValidation:
		return ErrDataValidation
	default:
		return nil
	}
}

// Message templates.
const (
	msgNotFound       = "Файл %s не найден"
	msgNotAFile       = "%s не является файлом"
	msgEmptyFile      = "Файл пуст"
	msgHeadersOnly    = "Файл содержит только заголовки"
	msgBadEncoding    = "Некорректная кодировка файла"
	msgCSVRead        = "Ошибка чтения CSV файла"
	msgTooLarge       = "Превышен максимальный размер файла"
	msgColumnCount    = "Несоответствие количества столбцов. Ожидалось: %d, получено: %d"
	msgColumnMismatch = "Несоответствие структуры. Ожидался столбец: '%s', получен: '%s'"
	msgBadValue       = "Некорректный тип данных в строке %d, столбец '%s'"

	// MsgSuccess is reported when a file passes every stage.
	MsgSuccess = "Файл успешно обработан. Структура соответствует требованиям."
	// MsgFailurePrefix precedes the detail of every failure message.
	MsgFailurePrefix = "Ошибка обработки данных: "
)

// ProcessingError is the single error type produced by the pipeline.
type ProcessingError struct {
	Kind   Kind
	Detail string // Human-readable message, preserved verbatim

	Row      int    // 1-based CSV row for DataValidation (header is row 1)
	Column   string // Column name for StructureMismatch/DataValidation
	Position int    // 1-based column position for StructureMismatch

	Err error // Underlying cause, if any
}

func (e *ProcessingError) Error() string {
	return e.Detail
}

// Is reports whether target is the sentinel error for e's kind.
func (e *ProcessingError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *ProcessingError {
	return &ProcessingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsProcessingError extracts a *ProcessingError from err's chain.
func AsProcessingError(err error) (*ProcessingError, bool) {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
