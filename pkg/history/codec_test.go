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
	"github.com/stretchr/testify/require"
)

func TestDecodeUpdate_PresenceIsExplicit(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"streamUrl":"https://x/a.m3u8","watched":false,"currentTime":"42.5","title":null}`))
	require.NoError(t, err)

	require.NotNil(t, u.StreamURL)
	assert.Equal(t, "https://x/a.m3u8", *u.StreamURL)
	require.NotNil(t, u.Watched)
	assert.False(t, *u.Watched)
	require.NotNil(t, u.CurrentTime)
	assert.Equal(t, 42.5, *u.CurrentTime)

	assert.Nil(t, u.Title)
	assert.Nil(t, u.Duration)
	assert.Nil(t, u.EpisodeID)
	assert.Nil(t, u.LastWatched)
}

func TestDecodeUpdate_Timestamps(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"lastWatched":1735725600000}`))
	require.NoError(t, err)
	require.NotNil(t, u.LastWatched)
	assert.True(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).Equal(*u.LastWatched))

	u, err = DecodeUpdate([]byte(`{"lastWatched":"2025-01-01T10:00:00.5Z"}`))
	require.NoError(t, err)
	require.NotNil(t, u.LastWatched)
	assert.Equal(t, 500*time.Millisecond, u.LastWatched.Sub(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)))

	u, err = DecodeUpdate([]byte(`{"lastWatched":"yesterday","duration":"n/a"}`))
	require.NoError(t, err)
	assert.Nil(t, u.LastWatched)
	assert.Nil(t, u.Duration)
}

func TestDecodeUpdate_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `[]`, `"x"`, `42`} {
		_, err := DecodeUpdate([]byte(body))
		assert.Equal(t, types.InputError, types.KindOf(err), "body %q", body)
	}
}

func TestEncodeRecords_EmptyIsArray(t *testing.T) {
	data, err := encodeRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
