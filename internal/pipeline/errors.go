package pipeline

import (
	"errors"
	"fmt"
)

// ErrKind discriminates pipeline failures so the HTTP layer can map
// each to a status code without string matching.
type ErrKind string

const (
	// KindNotFound means the asset is missing or unreadable.
	KindNotFound ErrKind = "not_found"
	// KindUnsupportedFormat means no decode strategy applies to the
	// asset's content.
	KindUnsupportedFormat ErrKind = "unsupported_format"
	// KindInvalidParameter means the request itself is malformed, such
	// as an unknown size bucket.
	KindInvalidParameter ErrKind = "invalid_parameter"
	// KindDecode means a decode stage failed on this asset.
	KindDecode ErrKind = "decode"
	// KindEncode means output serialization failed.
	KindEncode ErrKind = "encode"
)

// Error is a typed pipeline failure. Stage is set for decode errors to
// identify which decoder rejected the asset.
type Error struct {
	Kind  ErrKind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Stage == "":
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s (stage %s)", e.Kind, e.Stage)
	case e.Stage == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (stage %s): %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// notFoundError wraps an unreadable or missing asset.
func notFoundError(err error) *Error {
	return &Error{Kind: KindNotFound, Err: err}
}

// unsupportedError marks an asset with no viable decode strategy.
func unsupportedError(path string) *Error {
	return &Error{Kind: KindUnsupportedFormat, Err: fmt.Errorf("no decode strategy for %s", path)}
}

// invalidParameterError marks malformed request input.
func invalidParameterError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidParameter, Err: fmt.Errorf(format, args...)}
}

// decodeError wraps a stage-specific decode failure.
func decodeError(stage string, err error) *Error {
	return &Error{Kind: KindDecode, Stage: stage, Err: err}
}

// encodeError wraps an output serialization failure.
func encodeError(err error) *Error {
	return &Error{Kind: KindEncode, Err: err}
}

// KindOf extracts the error kind from err. The second return value is
// false for errors that did not originate in the pipeline, such as
// context cancellation.
func KindOf(err error) (ErrKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
