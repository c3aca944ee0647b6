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

// Package playlist seeds the watch history from an M3U playlist.
package playlist

import (
	"fmt"
	"strings"

	"github.com/jamesnetherton/m3u"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// SourceName tags records created by an import.
const SourceName = "m3u"

// Upserter is the part of the history store an import writes to.
type Upserter interface {
	Upsert(u types.HistoryUpdate) (rec types.HistoryRecord, kept bool, err error)
}

// Report summarizes an import.
type Report struct {
	Imported int
	Skipped  int
}

// Import parses the playlist at location (a file path or an http(s) URL)
// and upserts one history record per track.
func Import(location string, store Upserter) (Report, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Report{}, types.NewInputError("playlist location is required")
	}

	playlist, err := m3u.Parse(location)
	if err != nil {
		return Report{}, types.NewInputError("parse playlist %s: %v", location, err)
	}
	utils.InfoLog("Successfully parsed M3U playlist from %s (%d tracks)", utils.MaskURL(location), len(playlist.Tracks))

	return ImportTracks(playlist.Tracks, store)
}

// ImportTracks upserts the given tracks. Tracks without a URI are skipped.
// The first store failure aborts the import.
func ImportTracks(tracks []m3u.Track, store Upserter) (Report, error) {
	var report Report
	for i, track := range tracks {
		uri := strings.TrimSpace(track.URI)
		if uri == "" {
			utils.DebugLog("Playlist: track %d (%q) has no URI, skipping", i, track.Name)
			report.Skipped++
			continue
		}

		u := types.HistoryUpdate{StreamURL: &uri, Source: stringPtr(SourceName)}
		if name := strings.TrimSpace(track.Name); name != "" {
			u.Title = &name
		}
		if track.Length > 0 {
			length := float64(track.Length)
			u.Duration = &length
		}

		if _, _, err := store.Upsert(u); err != nil {
			return report, fmt.Errorf("import track %d: %w", i, err)
		}
		report.Imported++
	}
	return report, nil
}

func stringPtr(s string) *string { return &s }
