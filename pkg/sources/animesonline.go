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
	"regexp"

	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/extractor"
	"github.com/lucasduport/stream-relay/pkg/types"
	"golang.org/x/net/html"
)

// AnimesOnlineName is the source name reported for animesonline pages.
const AnimesOnlineName = "animesonline"

// AnimesOnlineDefaults are the request headers animesonline expects.
var AnimesOnlineDefaults = config.SourceConfig{
	Referer: "https://animesonlinecc.to/",
}

// embedNote tells the client why it gets a player page instead of a manifest.
const embedNote = "episode is hosted on Blogger; load streamUrl in an iframe, the manifest is not reachable from outside the player"

var bloggerEmbedPattern = regexp.MustCompile(`https?:(?:\\?/){2}(?:www\.)?blogger\.com\\?/video\.g\?[^"'<>\s]+`)

// EmbedAdapter serves sites whose pages only carry a third-party player
// URL. There is no cascade: one fixed pattern either matches or not.
type EmbedAdapter struct {
	site
	fetcher PageFetcher
	pattern *regexp.Regexp
	note    string
}

// NewAnimesOnline returns the adapter for animesonlinecc.to episode pages.
func NewAnimesOnline(fetcher PageFetcher, conf config.SourceConfig) *EmbedAdapter {
	return &EmbedAdapter{
		site:    site{name: AnimesOnlineName, domains: []string{"animesonlinecc.to"}, conf: conf},
		fetcher: fetcher,
		pattern: bloggerEmbedPattern,
		note:    embedNote,
	}
}

// Extract fetches the episode page and pulls out the embedded player URL.
func (a *EmbedAdapter) Extract(ctx context.Context, u *url.URL) (*types.PageExtractionResult, error) {
	body, err := a.fetcher.Fetch(ctx, u.String(), a.headers())
	if err != nil {
		return nil, err
	}

	raw := a.pattern.FindString(body)
	if raw == "" {
		return nil, types.NewNotFoundError("video embed not found")
	}
	embed := extractor.Sanitize(html.UnescapeString(raw))

	return &types.PageExtractionResult{
		StreamURL:  embed,
		Title:      extractor.Title(body),
		PlayerType: types.PlayerExternalEmbed,
		Source:     a.name,
		Note:       a.note,
	}, nil
}
