package core

// error_messages.go maps validation failures to user-friendly messages with
// codes for support reference. The detail text of a *ProcessingError stays the
// primary message; the code and action are shown next to it.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found: Nothing exists at the given path
//	          Action: Check the path and try again
//	          Kind: NotFoundError
//
//	FILE002 - Invalid CSV: File is not a valid CSV or not a regular file
//	          Action: Ensure the file is comma-separated with balanced quotes
//	          Kind: InvalidFormatError
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Kind: InvalidFormatError (cause ErrInvalidEncoding)
//
//	FILE004 - File too large: File exceeds the configured size limit
//	          Action: Split the file into smaller chunks
//	          Kind: InvalidFormatError (cause ErrFileTooLarge)
//
//	FILE005 - Empty file: The file has no data rows
//	          Action: Provide a CSV file with a header and data rows
//	          Kind: EmptyFileError
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Structure mismatch: Column headers differ from the expected layout
//	         Action: Download the expected header list and compare
//	         Kind: StructureMismatchError
//
//	VAL002 - Invalid number: An amount column holds a non-numeric value
//	         Action: Use digits with a period or comma as the decimal separator
//	         Kind: DataValidationError
//
// # Service Errors (SVC001-SVC099)
//
//	SVC001 - System busy: Too many validations in progress
//	SVC002 - Request cancelled
//	SVC003 - Request timeout
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application
// logs for the original technical error when users report ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileNotFound = UserMessage{
		Message: "File not found",
		Action:  "Check the path and try again",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with balanced quotes",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE004",
	}
	msgFileEmpty = UserMessage{
		Message: "The file has no data rows",
		Action:  "Provide a CSV file with a header and data rows",
		Code:    "FILE005",
	}
	msgStructure = UserMessage{
		Message: "Column headers do not match the expected layout",
		Action:  "Download the expected header list and compare",
		Code:    "VAL001",
	}
	msgInvalidNumber = UserMessage{
		Message: "Invalid number format detected",
		Action:  "Use digits with a period or comma as the decimal separator",
		Code:    "VAL002",
	}
)

// errorPattern maps a substring of a technical error to a user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors raised outside the pipeline. Matched
// case-insensitively; first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "too many concurrent validations",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "SVC001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SVC002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "SVC003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to validate",
			Code:    "FILE006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Pipeline failures
// are mapped by kind and cause; other errors by pattern.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if pe, ok := AsProcessingError(err); ok {
		return mapKind(pe)
	}

	if errors.Is(err, context.Canceled) {
		return mapPattern("context canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return mapPattern("context deadline exceeded")
	}

	return mapPattern(err.Error())
}

func mapKind(pe *ProcessingError) UserMessage {
	switch pe.Kind {
	case KindNotFound:
		return msgFileNotFound
	case KindInvalidFormat:
		switch {
		case errors.Is(pe, ErrInvalidEncoding):
			return msgEncoding
		case errors.Is(pe, ErrFileTooLarge):
			return msgFileTooLarge
		default:
			return msgInvalidCSV
		}
	case KindEmptyFile:
		return msgFileEmpty
	case KindStructureMismatch:
		return msgStructure
	case KindDataValidation:
		return msgInvalidNumber
	default:
		return defaultMessage
	}
}

func mapPattern(s string) UserMessage {
	s = strings.ToLower(s)
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
