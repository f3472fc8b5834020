package domain

import (
	"encoding/json"
	"errors"
)

// Domain errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidPDF       = errors.New("invalid pdf")
	ErrEncryptedPDF     = errors.New("pdf is password protected")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrNoPagesLeft      = errors.New("no pages left")
	ErrNothingSelected  = errors.New("no pages selected")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrRenderSuperseded = errors.New("render superseded")
	ErrRenderCancelled  = errors.New("render cancelled")
	ErrViewerClosed     = errors.New("viewer closed")
	ErrConversionFailed = errors.New("conversion failed")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// UnfinishedConversionError is returned when the conversion service answered
// without handing out a converted file. Details is its answer.
type UnfinishedConversionError struct {
	Details json.RawMessage
}

func (e *UnfinishedConversionError) Error() string {
	return "conversion not finished: " + string(e.Details)
}

func (e *UnfinishedConversionError) Unwrap() error {
	return ErrConversionFailed
}
