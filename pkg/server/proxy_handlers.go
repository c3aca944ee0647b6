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

package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// strippedResponseHeaders are dropped from relayed responses: the client
// transport already decoded the body, and CORS is answered locally.
var strippedResponseHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Credentials",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Expose-Headers",
}

// forwardedRequestHeaders are copied from the client on top of the fixed
// relay headers so players can seek within segments.
var forwardedRequestHeaders = []string{"Range", "If-Range"}

// proxyTarget decodes the URL-encoded absolute URL following /proxy/.
func proxyTarget(requestURI string) (*url.URL, bool) {
	raw := strings.TrimPrefix(requestURI, proxyPrefix)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, false
	}
	target, err := url.Parse(decoded)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, false
	}
	return target, true
}

// proxyStream re-issues the request to the decoded target with the fixed
// relay headers and streams the response back.
func (c *Config) proxyStream(ctx *gin.Context) {
	target, ok := proxyTarget(ctx.Request.RequestURI)
	if !ok {
		utils.DebugLog("[%s] rejected proxy target %q", ctx.GetString(requestIDKey), ctx.Request.RequestURI)
		ctx.String(http.StatusBadRequest, "invalid URL")
		return
	}
	c.stream(ctx, target)
}

// stream proxies the content from upstream to the client, preserving status
// and most headers.
func (c *Config) stream(ctx *gin.Context, oriURL *url.URL) {
	utils.DebugLog("-> Proxying to upstream URL: %s", utils.MaskURL(oriURL.String()))

	var body io.Reader
	if ctx.Request.ContentLength != 0 && ctx.Request.Body != nil {
		body = ctx.Request.Body
	}

	// Bound to the client context so it cancels if the client disconnects
	req, err := http.NewRequestWithContext(ctx.Request.Context(), ctx.Request.Method, oriURL.String(), body)
	if err != nil {
		ctx.String(http.StatusBadRequest, "invalid URL")
		return
	}
	req.Header = c.ProxyHeaders()
	for _, h := range forwardedRequestHeaders {
		if v := ctx.GetHeader(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	if body != nil {
		if ct := ctx.GetHeader("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}

	resp, err := c.proxyClient.Do(req)
	if err != nil {
		utils.ErrorLog("Proxy error for %s: %v", utils.MaskURL(oriURL.String()), err)
		ctx.String(http.StatusInternalServerError, "proxy error: %v", err)
		return
	}
	defer resp.Body.Close()

	utils.DebugLog("-> Upstream response status: %d", resp.StatusCode)

	upstream := resp.Header.Clone()
	for _, h := range strippedResponseHeaders {
		upstream.Del(h)
	}
	header := ctx.Writer.Header()
	mergeHttpHeader(header, upstream)
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentTypeForPath(oriURL.Path))
	}
	header.Set("X-Accel-Buffering", "no")
	ctx.Status(resp.StatusCode)
	ctx.Writer.WriteHeaderNow()

	// Stream the response body to the client with flushes
	w := ctx.Writer
	buf := make([]byte, 64*1024)

	for {
		// Respect client cancellation
		select {
		case <-ctx.Request.Context().Done():
			utils.DebugLog("Client cancelled stream for URL: %s", utils.MaskURL(oriURL.String()))
			return
		default:
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				utils.DebugLog("Client write error: %v", werr)
				return
			}
			w.Flush()
		}
		if rerr != nil {
			if rerr != io.EOF {
				utils.DebugLog("Upstream read error: %v", rerr)
			}
			return
		}
	}
}
