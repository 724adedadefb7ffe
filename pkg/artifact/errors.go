package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArtifact indicates a required document does not exist.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrMalformedArtifact indicates a document could not be parsed, does
	// not match its schema, or is inconsistent with the other documents.
	ErrMalformedArtifact = errors.New("malformed artifact")
)

// Error describes a failure to load one artifact document.
type Error struct {
	// Path is the file path or URL of the offending document.
	Path string
	// Kind is ErrMissingArtifact or ErrMalformedArtifact.
	Kind error
	// Err is the underlying cause, may be nil.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func missing(path string, err error) *Error {
	return &Error{Path: path, Kind: ErrMissingArtifact, Err: err}
}

func malformed(path string, err error) *Error {
	return &Error{Path: path, Kind: ErrMalformedArtifact, Err: err}
}
