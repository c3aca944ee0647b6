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

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrorDetailLevel controls how much caller context is attached to errors
type ErrorDetailLevel int

const (
	// ErrorDetailNone returns errors untouched and prints nothing
	ErrorDetailNone ErrorDetailLevel = iota
	// ErrorDetailSimple prefixes file:line [function] (default)
	ErrorDetailSimple
	// ErrorDetailFull appends the goroutine stack
	ErrorDetailFull
)

func getErrorDetailLevel() ErrorDetailLevel {
	switch strings.ToLower(os.Getenv("ERROR_DETAIL_LEVEL")) {
	case "none":
		return ErrorDetailNone
	case "full":
		return ErrorDetailFull
	default:
		return ErrorDetailSimple
	}
}

// locatedError keeps the original error reachable through errors.Is/As.
type locatedError struct {
	location string
	stack    string
	err      error
}

func (e *locatedError) Error() string {
	if e.stack != "" {
		return fmt.Sprintf("%s: %v\nStack Trace:\n%s", e.location, e.err, e.stack)
	}
	return fmt.Sprintf("%s: %v", e.location, e.err)
}

func (e *locatedError) Unwrap() error { return e.err }

func formatError(err error, skip int) error {
	level := getErrorDetailLevel()
	if level == ErrorDetailNone {
		return err
	}

	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return err
	}
	fnName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		fnName = filepath.Base(fn.Name())
	}

	located := &locatedError{
		location: fmt.Sprintf("%s:%d [%s]", filepath.Base(file), line, fnName),
		err:      err,
	}
	if level == ErrorDetailFull {
		buffer := make([]byte, 4096)
		n := runtime.Stack(buffer, false)
		lines := strings.Split(string(buffer[:n]), "\n")
		if len(lines) > 0 {
			lines = lines[1:]
		}
		located.stack = strings.Join(lines, "\n")
	}
	return located
}

// ErrorWithLocation wraps an error with the caller's file, line and function
func ErrorWithLocation(err error) error {
	if err == nil {
		return nil
	}
	return formatError(err, 2)
}

// PrintErrorAndReturn logs the located error and returns it
func PrintErrorAndReturn(err error) error {
	if err == nil {
		return nil
	}

	wrapped := formatError(err, 2)
	if getErrorDetailLevel() != ErrorDetailNone {
		ErrorLog("%v", wrapped)
	}
	return wrapped
}
