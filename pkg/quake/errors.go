package quake

import "fmt"

type quakeError string

const (
	// ErrInvalidInput is the cause of every validation failure
	ErrInvalidInput = quakeError("invalid input")
	// ErrInvalidFileType is returned for uploads which are not text/csv
	ErrInvalidFileType = quakeError("invalid file type")
	// ErrEmptyUpload is returned when no file was chosen
	ErrEmptyUpload = quakeError("no file selected")
)

func (e quakeError) Error() string {
	return string(e)
}

// User facing messages
const (
	MsgInvalidSearch   = "Invalid latitude or degrees. Please enter valid numeric values."
	MsgInvalidFileType = "Invalid file type. Please upload a CSV file."
	MsgDuplicateID     = "Error: ID already exists."
	MsgUnknownID       = "Error: ID does not exist."
	MsgNoFilePart      = "No file part"
	MsgNoSelectedFile  = "No selected file"
)

// inputError describes a rejected value. Its cause is always ErrInvalidInput.
type inputError struct {
	msg string
}

func invalidInput(format string, args ...interface{}) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

func (e *inputError) Error() string {
	return e.msg
}

// Cause is used by errors.Cause of github.com/pkg/errors
func (e *inputError) Cause() error {
	return ErrInvalidInput
}

func (e *inputError) Unwrap() error {
	return ErrInvalidInput
}
