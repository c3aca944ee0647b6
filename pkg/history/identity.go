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

package history

import (
	"strings"

	"github.com/lucasduport/stream-relay/pkg/types"
)

// NormalizeURL trims whitespace and trailing slashes so that
// "https://x/ep/1/" and "https://x/ep/1" name the same episode.
func NormalizeURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

// Key derives a record's identity: the first non-empty of episodeId,
// streamUrl, playerUrl, pageUrl. Empty means the record has no identity.
func Key(r types.HistoryRecord) string {
	return firstNonEmpty(
		strings.TrimSpace(r.EpisodeID),
		NormalizeURL(r.StreamURL),
		NormalizeURL(r.PlayerURL),
		NormalizeURL(r.PageURL),
	)
}

// UpdateKey derives the identity of a partial record.
func UpdateKey(u types.HistoryUpdate) string {
	return firstNonEmpty(
		strings.TrimSpace(deref(u.EpisodeID)),
		NormalizeURL(deref(u.StreamURL)),
		NormalizeURL(deref(u.PlayerURL)),
		NormalizeURL(deref(u.PageURL)),
	)
}

// CompoundKeys returns the secondary identity facets of a record:
// "episode:<key>" and, when known, "page:<pageUrl>".
func CompoundKeys(r types.HistoryRecord) []string {
	return compound(Key(r), NormalizeURL(r.PageURL))
}

func updateCompoundKeys(u types.HistoryUpdate) []string {
	return compound(UpdateKey(u), NormalizeURL(deref(u.PageURL)))
}

func compound(id, page string) []string {
	var keys []string
	if id != "" {
		keys = append(keys, "episode:"+id)
	}
	if page != "" {
		keys = append(keys, "page:"+page)
	}
	return keys
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
