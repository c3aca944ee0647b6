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
	"testing"
	"time"

	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestKey_Precedence(t *testing.T) {
	full := types.HistoryRecord{
		EpisodeID: " ep-1 ",
		StreamURL: "https://cdn.example.com/a.m3u8",
		PlayerURL: "https://player.example.com/1",
		PageURL:   "https://anroll.net/e/1/",
	}
	assert.Equal(t, "ep-1", Key(full))

	full.EpisodeID = ""
	assert.Equal(t, "https://cdn.example.com/a.m3u8", Key(full))

	full.StreamURL = "  "
	assert.Equal(t, "https://player.example.com/1", Key(full))

	full.PlayerURL = ""
	assert.Equal(t, "https://anroll.net/e/1", Key(full))

	full.PageURL = "/"
	assert.Equal(t, "", Key(full))
}

func TestKey_IgnoresLastWatched(t *testing.T) {
	r := types.HistoryRecord{StreamURL: "https://cdn.example.com/a.m3u8", LastWatched: time.Now()}
	before := Key(r)
	r.LastWatched = r.LastWatched.Add(48 * time.Hour)
	assert.Equal(t, before, Key(r))
	assert.Equal(t, Key(r), Key(r))
}

func TestUpdateKeyMatchesRecordKey(t *testing.T) {
	page := "https://anroll.net/e/1/"
	assert.Equal(t, Key(types.HistoryRecord{PageURL: page}), UpdateKey(types.HistoryUpdate{PageURL: &page}))
}

func TestCompoundKeys(t *testing.T) {
	assert.Equal(t, []string{"episode:ep-1", "page:https://anroll.net/e/1"},
		CompoundKeys(types.HistoryRecord{EpisodeID: "ep-1", PageURL: "https://anroll.net/e/1/"}))
	assert.Equal(t, []string{"episode:https://cdn.example.com/a.m3u8"},
		CompoundKeys(types.HistoryRecord{StreamURL: "https://cdn.example.com/a.m3u8"}))
	assert.Nil(t, CompoundKeys(types.HistoryRecord{}))
}
