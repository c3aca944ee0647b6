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

package fetch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// SupportedEncodings is advertised in Accept-Encoding.
const SupportedEncodings = "gzip, deflate, br"

// Decode wraps r so that reading yields the identity encoding. Stacked
// codings ("gzip, br") are undone last-applied first.
func Decode(r io.Reader, contentEncoding string) (io.ReadCloser, error) {
	codings := strings.Split(contentEncoding, ",")
	closers := make([]io.Closer, 0, len(codings))
	cur := r

	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		switch coding {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(cur)
			if err != nil {
				closeAll(closers)
				return nil, fmt.Errorf("gzip: %w", err)
			}
			closers = append(closers, zr)
			cur = zr
		case "deflate":
			dr, err := newDeflateReader(cur)
			if err != nil {
				closeAll(closers)
				return nil, fmt.Errorf("deflate: %w", err)
			}
			closers = append(closers, dr)
			cur = dr
		case "br":
			cur = brotli.NewReader(cur)
		default:
			closeAll(closers)
			return nil, fmt.Errorf("unsupported content encoding %q", coding)
		}
	}

	return &decodedBody{Reader: cur, closers: closers}, nil
}

// newDeflateReader accepts both zlib-wrapped streams (what the RFC calls
// deflate) and the raw deflate streams some servers send instead.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	return closeAll(d.closers)
}

func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
