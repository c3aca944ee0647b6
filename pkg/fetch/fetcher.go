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

// Package fetch retrieves upstream pages for the source adapters. Bodies are
// always returned decoded, whatever Content-Encoding the origin chose.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// DefaultTimeout bounds a whole page fetch.
const DefaultTimeout = 20 * time.Second

// maxBodySize caps decoded pages; player pages are far below this.
const maxBodySize = 16 << 20

// Fetcher retrieves page text with per-host rate limiting.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *HostLimiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for a fetch, connection to last body byte.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent sent when the caller does not provide one.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRateLimit allows rps requests per second to any single host.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		f.limiter = NewHostLimiter(rps)
	}
}

// WithTransport replaces the client transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.client.Transport = rt
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: utils.GetUserAgent(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.Timeout = f.timeout
	return f
}

// Fetch GETs rawURL with the given headers and returns the decoded body text.
// Every failure is a types.UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, header http.Header) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", types.NewInputError("invalid url: %s", rawURL)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return "", types.NewUpstreamError(err, "rate limit wait for %s", u.Host)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", types.NewUpstreamError(err, "build request")
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	}
	// Setting it by hand turns off net/http's transparent gzip, so every
	// encoding goes through the same decoder below.
	req.Header.Set("Accept-Encoding", SupportedEncodings)

	utils.DebugLog("Fetching page %s", utils.MaskURL(u.String()))
	resp, err := f.client.Do(req)
	if err != nil {
		return "", types.NewUpstreamError(err, "fetch %s", u.Host)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", types.NewUpstreamError(fmt.Errorf("HTTP %d", resp.StatusCode), "fetch %s", u.Host)
	}

	body, err := Decode(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", types.NewUpstreamError(err, "decode %s response", u.Host)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return "", types.NewUpstreamError(err, "read %s response", u.Host)
	}
	utils.DebugLog("Fetched %d bytes from %s (encoding=%q)", len(data), u.Host, resp.Header.Get("Content-Encoding"))
	return string(data), nil
}
