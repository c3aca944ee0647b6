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

// Package sources maps a page URL onto the site-specific way of turning it
// into a playable link.
package sources

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/types"
)

// Adapter handles pages of one site.
type Adapter interface {
	Name() string
	Matches(u *url.URL) bool
	Extract(ctx context.Context, u *url.URL) (*types.PageExtractionResult, error)
}

// PageFetcher retrieves decoded page text. Satisfied by *fetch.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) (string, error)
}

// ErrUnsupportedSource is returned when no adapter claims a URL.
var ErrUnsupportedSource = types.NewInputError("unsupported source")

// site is the matching and header part shared by every adapter.
type site struct {
	name    string
	domains []string
	conf    config.SourceConfig
}

func (s site) Name() string { return s.name }

// Matches reports whether u's host is one of the site's domains or a
// subdomain of one.
func (s site) Matches(u *url.URL) bool {
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	for _, d := range s.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (s site) headers() http.Header {
	h := http.Header{}
	if s.conf.Referer != "" {
		h.Set("Referer", s.conf.Referer)
	}
	if s.conf.Origin != "" {
		h.Set("Origin", s.conf.Origin)
	}
	return h
}
