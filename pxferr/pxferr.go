/*
NAME
  pxferr.go

DESCRIPTION
  pxferr.go defines the tagged error kinds returned by the pxf codec. The
  codec never panics on data it's designed to parse; malformed input
  surfaces as one of these kinds at the top-level operation boundary.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pxferr provides the tagged error kinds used across the pxf codec.
package pxferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the class of a pxf error, independent of the wrapped
// cause or message.
type Kind int

const (
	// InvalidInput covers malformed metadata, empty payload, or a missing
	// audio/binary selection at the facade boundary.
	InvalidInput Kind = iota
	InvalidMagic
	UnsupportedVersion
	Truncated
	BadMetadata
	UnsupportedJpeg
	CorruptJpeg
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case InvalidMagic:
		return "invalid magic"
	case UnsupportedVersion:
		return "unsupported version"
	case Truncated:
		return "truncated"
	case BadMetadata:
		return "bad metadata"
	case UnsupportedJpeg:
		return "unsupported jpeg"
	case CorruptJpeg:
		return "corrupt jpeg"
	default:
		return "unknown"
	}
}

// Error is a tagged pxf error. Kind is stable and suitable for switching
// on; Msg and the wrapped cause carry the detail.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pxf: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("pxf: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind with message msg.
func New(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

// Newf is like New but formats msg.
func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with kind k and msg, preserving err as the cause,
// reachable through Unwrap.
func Wrap(k Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: msg, Err: errors.Wrap(err, msg)}
}

// Is reports whether err is a *Error of kind k, looking through wrapping.
func Is(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}
