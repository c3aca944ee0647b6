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

package fetch_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/lucasduport/stream-relay/pkg/fetch"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>Episode 1</title></head><body><video src="https://cdn.example.com/ep1.m3u8"></video></body></html>`

func compress(t *testing.T, encoding string, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch encoding {
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "deflate":
		w := zlib.NewWriter(&buf)
		_, err := w.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "raw-deflate":
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "br":
		w := brotli.NewWriter(&buf)
		_, err := w.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.WriteString(data)
	}
	return buf.Bytes()
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	encodings := []struct {
		name   string
		header string
		body   string
	}{
		{name: "identity", header: "", body: ""},
		{name: "gzip", header: "gzip", body: "gzip"},
		{name: "zlib deflate", header: "deflate", body: "deflate"},
		{name: "raw deflate", header: "deflate", body: "raw-deflate"},
		{name: "brotli", header: "br", body: "br"},
	}

	for _, enc := range encodings {
		enc := enc
		t.Run("decodes "+enc.name, func(t *testing.T) {
			t.Parallel()

			payload := compress(t, enc.body, page)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, fetch.SupportedEncodings, r.Header.Get("Accept-Encoding"))
				if enc.header != "" {
					w.Header().Set("Content-Encoding", enc.header)
				}
				_, _ = w.Write(payload)
			}))
			defer server.Close()

			body, err := fetch.NewFetcher().Fetch(context.Background(), server.URL, nil)
			require.NoError(t, err)
			assert.Equal(t, page, body)
		})
	}

	t.Run("sends caller headers and default user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "https://www.anroll.net/", r.Header.Get("Referer"))
			assert.Equal(t, "relay-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		h := http.Header{}
		h.Set("Referer", "https://www.anroll.net/")
		body, err := fetch.NewFetcher(fetch.WithUserAgent("relay-test")).Fetch(context.Background(), server.URL, h)
		require.NoError(t, err)
		assert.Equal(t, "ok", body)
	})

	t.Run("non-2xx is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := fetch.NewFetcher().Fetch(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.Equal(t, types.UpstreamError, types.KindOf(err))
		assert.Contains(t, err.Error(), "HTTP 403")
	})

	t.Run("corrupt gzip is an upstream error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write([]byte("definitely not gzip"))
		}))
		defer server.Close()

		_, err := fetch.NewFetcher().Fetch(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.Equal(t, types.UpstreamError, types.KindOf(err))
	})

	t.Run("respects timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		_, err := fetch.NewFetcher(fetch.WithTimeout(20*time.Millisecond)).Fetch(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.Equal(t, types.UpstreamError, types.KindOf(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fetch.NewFetcher().Fetch(ctx, server.URL, nil)
		require.Error(t, err)
	})

	t.Run("rejects relative url", func(t *testing.T) {
		t.Parallel()

		_, err := fetch.NewFetcher().Fetch(context.Background(), "/watch/1", nil)
		require.Error(t, err)
		assert.Equal(t, types.InputError, types.KindOf(err))
	})
}

func TestDecode_StackedEncodings(t *testing.T) {
	inner := compress(t, "gzip", "segment list")
	outer := compress(t, "br", string(inner))

	rc, err := fetch.Decode(bytes.NewReader(outer), "gzip, br")
	require.NoError(t, err)
	defer rc.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "segment list", out.String())
}

func TestDecode_UnknownEncoding(t *testing.T) {
	_, err := fetch.Decode(bytes.NewReader(nil), "compress")
	assert.Error(t, err)
}

func TestHostLimiter(t *testing.T) {
	assert.Nil(t, fetch.NewHostLimiter(0))

	var nilLimiter *fetch.HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "example.com"))

	limiter := fetch.NewHostLimiter(1000)
	require.NoError(t, limiter.Wait(context.Background(), "a.example"))
	require.NoError(t, limiter.Wait(context.Background(), "b.example"))

	slow := fetch.NewHostLimiter(0.001)
	require.NoError(t, slow.Wait(context.Background(), "a.example"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx, "a.example"))
}
