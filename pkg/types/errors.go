/*
 * stream-relay is a project to extract, relay and track HLS streams.
 * Copyright (C) 2025  Lucas Duport
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to API callers
type ErrorKind int

const (
	// InputError is a missing or malformed parameter or an unsupported source
	InputError ErrorKind = iota + 1
	// NotFoundError is an exhausted extraction or an absent history record
	NotFoundError
	// UpstreamError is an unreachable or failing remote site
	UpstreamError
	// PersistenceError is an unwritable history file
	PersistenceError
)

func (k ErrorKind) String() string {
	switch k {
	case InputError:
		return "input"
	case NotFoundError:
		return "not found"
	case UpstreamError:
		return "upstream"
	case PersistenceError:
		return "persistence"
	default:
		return "unknown"
	}
}

// StatusCode maps the kind onto an HTTP status
func (k ErrorKind) StatusCode() int {
	switch k {
	case InputError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a caller-facing message and the underlying cause
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewInputError builds an InputError
func NewInputError(format string, args ...interface{}) error {
	return &Error{Kind: InputError, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError builds a NotFoundError
func NewNotFoundError(format string, args ...interface{}) error {
	return &Error{Kind: NotFoundError, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamError wraps a transport failure
func NewUpstreamError(err error, format string, args ...interface{}) error {
	return &Error{Kind: UpstreamError, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(err error, format string, args ...interface{}) error {
	return &Error{Kind: PersistenceError, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or zero.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusCode returns the HTTP status for any error; unclassified errors are 500.
func StatusCode(err error) int {
	return KindOf(err).StatusCode()
}
