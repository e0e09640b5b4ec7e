package vvc

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the parser. Use errors.Is to tell them apart;
// they usually arrive wrapped in a *UnitError.
var (
	ErrMalformedHeader = errors.New("vvc: malformed NAL unit header")
	ErrSPSTooShort     = errors.New("vvc: SPS data too short")
	ErrFrameAppend     = errors.New("vvc: error adding frame to frame list")
	ErrStreamClosed    = errors.New("vvc: stream already closed")
)

// UnitError attaches the sequence index of the offending NAL unit to an
// error. Index is -1 for the end-of-stream sentinel.
type UnitError struct {
	Index int
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("vvc: NAL %d: %v", e.Index, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// ParseError records which SPS syntax element was being read when parsing
// failed.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vvc: parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
