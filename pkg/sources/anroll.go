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
	"net/url"

	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/extractor"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// AnrollName is the source name reported for anroll pages.
const AnrollName = "anroll"

// AnrollDefaults are the request headers anroll's CDN expects.
var AnrollDefaults = config.SourceConfig{
	Referer: "https://www.anroll.net/",
	Origin:  "https://www.anroll.net",
}

// ManifestAdapter serves sites that embed an HLS manifest URL directly in
// the watch page.
type ManifestAdapter struct {
	site
	fetcher   PageFetcher
	extractor *extractor.Extractor
}

// NewAnroll returns the adapter for anroll.net watch pages.
func NewAnroll(fetcher PageFetcher, conf config.SourceConfig) *ManifestAdapter {
	return &ManifestAdapter{
		site:      site{name: AnrollName, domains: []string{"anroll.net"}, conf: conf},
		fetcher:   fetcher,
		extractor: extractor.New(),
	}
}

// Extract fetches the watch page and runs the manifest cascade over it.
func (a *ManifestAdapter) Extract(ctx context.Context, u *url.URL) (*types.PageExtractionResult, error) {
	body, err := a.fetcher.Fetch(ctx, u.String(), a.headers())
	if err != nil {
		return nil, err
	}

	page := extractor.NewPage(body)
	match, err := a.extractor.ExtractPage(page)
	if err != nil {
		utils.DebugLog("[%s] no manifest in %d bytes from %s", a.name, len(body), u.Host)
		return nil, err
	}

	result := &types.PageExtractionResult{
		StreamURL:  match.URL,
		Title:      page.Title(),
		PlayerType: types.PlayerHLS,
		Source:     a.name,
	}
	if match.Strategy != extractor.DefaultStrategies[0].Name {
		result.Note = "manifest located by " + match.Strategy + " scan"
	}
	return result, nil
}
