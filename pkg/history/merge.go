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
	"math"
	"strings"
	"time"

	"github.com/lucasduport/stream-relay/pkg/types"
)

// progressThreshold is how far playback must move, in seconds, before an
// update counts as fresh viewing activity.
const progressThreshold = 1.0

// normalizeUpdate trims identity fields and drops the ones left empty, so an
// empty string in a request never erases a stored value.
func normalizeUpdate(u types.HistoryUpdate) types.HistoryUpdate {
	u.EpisodeID = presentString(strings.TrimSpace(deref(u.EpisodeID)))
	u.StreamURL = presentString(NormalizeURL(deref(u.StreamURL)))
	u.PlayerURL = presentString(NormalizeURL(deref(u.PlayerURL)))
	u.PageURL = presentString(NormalizeURL(deref(u.PageURL)))
	u.Title = presentString(strings.TrimSpace(deref(u.Title)))
	u.Source = presentString(strings.TrimSpace(deref(u.Source)))
	if u.LastWatched != nil && u.LastWatched.IsZero() {
		u.LastWatched = nil
	}
	return u
}

func presentString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// newRecord builds a record from a candidate that matched nothing.
func newRecord(key string, u types.HistoryUpdate, now time.Time) types.HistoryRecord {
	rec := types.HistoryRecord{EpisodeID: key, LastWatched: now}
	apply(&rec, u)
	rec.EpisodeID = key
	if u.LastWatched != nil {
		rec.LastWatched = *u.LastWatched
	}
	return rec
}

// merge lays the candidate's present fields over old. lastWatched follows
// its own rule, see resolveLastWatched.
func merge(old types.HistoryRecord, key string, u types.HistoryUpdate, now time.Time) types.HistoryRecord {
	merged := old
	apply(&merged, u)
	merged.EpisodeID = key
	merged.LastWatched = resolveLastWatched(old, u, now)
	return merged
}

func apply(rec *types.HistoryRecord, u types.HistoryUpdate) {
	if u.EpisodeID != nil {
		rec.EpisodeID = *u.EpisodeID
	}
	if u.StreamURL != nil {
		rec.StreamURL = *u.StreamURL
	}
	if u.PlayerURL != nil {
		rec.PlayerURL = *u.PlayerURL
	}
	if u.PageURL != nil {
		rec.PageURL = *u.PageURL
	}
	if u.Title != nil {
		rec.Title = *u.Title
	}
	if u.Source != nil {
		rec.Source = *u.Source
	}
	if u.Watched != nil {
		rec.Watched = *u.Watched
	}
	if u.CurrentTime != nil {
		rec.CurrentTime = *u.CurrentTime
	}
	if u.Duration != nil {
		rec.Duration = *u.Duration
	}
}

// resolveLastWatched decides the recency stamp of a merged record:
//  1. a watched toggle with unchanged progress keeps the stored stamp
//  2. progress moved by more than progressThreshold stamps now
//  3. otherwise the candidate's stamp, else the stored one, else now
//
// Progress equality in rule 1 is exact.
func resolveLastWatched(old types.HistoryRecord, u types.HistoryUpdate, now time.Time) time.Time {
	if u.Watched != nil && unchanged(u.CurrentTime, old.CurrentTime) && unchanged(u.Duration, old.Duration) && !old.LastWatched.IsZero() {
		return old.LastWatched
	}
	if u.CurrentTime != nil && math.Abs(*u.CurrentTime-old.CurrentTime) > progressThreshold {
		return now
	}
	if u.LastWatched != nil {
		return *u.LastWatched
	}
	if !old.LastWatched.IsZero() {
		return old.LastWatched
	}
	return now
}

func unchanged(candidate *float64, stored float64) bool {
	return candidate == nil || *candidate == stored
}
