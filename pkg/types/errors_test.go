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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", NewInputError("missing url parameter"), http.StatusBadRequest},
		{"not found", NewNotFoundError("stream URL not found"), http.StatusNotFound},
		{"upstream", NewUpstreamError(errors.New("dial tcp: refused"), "fetch page"), http.StatusInternalServerError},
		{"persistence", NewPersistenceError(errors.New("read-only fs"), "write history"), http.StatusInternalServerError},
		{"wrapped input", fmt.Errorf("handler: %w", NewInputError("unsupported source")), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := NewUpstreamError(errors.New("connection reset"), "fetch %s", "https://example.com")
	assert.Equal(t, "fetch https://example.com: connection reset", err.Error())
	assert.Equal(t, UpstreamError, KindOf(err))
	assert.Equal(t, "upstream", KindOf(err).String())
}
