package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a run failed. Values are stable strings for log output.
type ErrorKind string

const (
	KindExportFailed  ErrorKind = "EXPORT_FAILED"
	KindNetwork       ErrorKind = "NETWORK_ERROR"
	KindExtraction    ErrorKind = "EXTRACTION_FAILED"
	KindParse         ErrorKind = "PARSE_FAILED"
	KindPersistence   ErrorKind = "PERSISTENCE_FAILED"
	KindFilesystem    ErrorKind = "FILESYSTEM_ERROR"
	KindInvalidConfig ErrorKind = "CONFIG_INVALID"
)

type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var ErrExportFailed = errors.New("platform reported a failed export")
