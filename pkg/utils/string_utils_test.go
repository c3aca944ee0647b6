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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskString(t *testing.T) {
	assert.Equal(t, "[empty]", MaskString(""))
	assert.Equal(t, "s******", MaskString("secret"))
	assert.Equal(t, "abcd...mnop", MaskString("abcdefghijklmnop"))
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.m3u8", MaskURL("https://cdn.example.com/a.m3u8"))
	assert.Equal(t, "https://cdn.example.com/a.m3u8?token=0123...cdef",
		MaskURL("https://cdn.example.com/a.m3u8?token=0123456789abcdef"))
	assert.Equal(t, "::not a url", MaskURL("::not a url"))
}
