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

package sources

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
	"golang.org/x/sync/singleflight"
)

// Registry holds adapters in registration order.
type Registry struct {
	adapters []Adapter
	group    singleflight.Group
}

// NewRegistry creates a registry trying adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// DefaultRegistry wires the built-in adapters to fetcher using per-source
// header overrides from conf.
func DefaultRegistry(fetcher PageFetcher, conf *config.ProxyConfig) *Registry {
	return NewRegistry(
		NewAnroll(fetcher, conf.Source(AnrollName, AnrollDefaults)),
		NewAnimesOnline(fetcher, conf.Source(AnimesOnlineName, AnimesOnlineDefaults)),
	)
}

// Register appends an adapter; it is tried after every existing one.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Names lists adapter names in dispatch order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Lookup returns the first adapter matching u.
func (r *Registry) Lookup(u *url.URL) (Adapter, error) {
	for _, a := range r.adapters {
		if a.Matches(u) {
			return a, nil
		}
	}
	return nil, ErrUnsupportedSource
}

// ParsePageURL validates a caller-supplied page URL.
func ParsePageURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, types.NewInputError("missing url parameter")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, types.NewInputError("invalid url: %s", raw)
	}
	return u, nil
}

// Resolve extracts the playable link for pageURL. Concurrent calls for the
// same URL share one upstream fetch.
func (r *Registry) Resolve(ctx context.Context, pageURL string) (*types.PageExtractionResult, error) {
	u, err := ParsePageURL(pageURL)
	if err != nil {
		return nil, err
	}
	adapter, err := r.Lookup(u)
	if err != nil {
		return nil, err
	}

	key := u.String()
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		utils.InfoLog("[%s] extracting %s", adapter.Name(), utils.MaskURL(key))
		return adapter.Extract(ctx, u)
	})
	// The leader's client went away; that cancellation is not ours.
	if err != nil && shared && ctx.Err() == nil && errors.Is(err, context.Canceled) {
		return adapter.Extract(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	return v.(*types.PageExtractionResult), nil
}
