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

package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesnetherton/m3u"
	"github.com/lucasduport/stream-relay/pkg/history"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlaylist = `#EXTM3U
#EXTINF:1420 tvg-id="ep1" group-title="Anime",Episode 1
https://cdn.example.com/show/ep1.m3u8
#EXTINF:1380,Episode 2
https://cdn.example.com/show/ep2.m3u8
`

func newStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.NewStore("/history.json", history.WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	return s
}

func TestImport_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	require.NoError(t, os.WriteFile(path, []byte(samplePlaylist), 0o644))
	store := newStore(t)

	report, err := Import(path, store)
	require.NoError(t, err)
	assert.Equal(t, Report{Imported: 2}, report)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)

	byURL := map[string]types.HistoryRecord{}
	for _, r := range records {
		byURL[r.StreamURL] = r
	}
	ep1 := byURL["https://cdn.example.com/show/ep1.m3u8"]
	assert.Equal(t, "Episode 1", ep1.Title)
	assert.Equal(t, 1420.0, ep1.Duration)
	assert.Equal(t, SourceName, ep1.Source)
	assert.Equal(t, "https://cdn.example.com/show/ep1.m3u8", ep1.EpisodeID)
}

func TestImport_ReimportDoesNotDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	require.NoError(t, os.WriteFile(path, []byte(samplePlaylist), 0o644))
	store := newStore(t)

	_, err := Import(path, store)
	require.NoError(t, err)
	_, err = Import(path, store)
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImport_Errors(t *testing.T) {
	store := newStore(t)

	_, err := Import("  ", store)
	assert.Equal(t, types.InputError, types.KindOf(err))

	_, err = Import(filepath.Join(t.TempDir(), "missing.m3u"), store)
	assert.Equal(t, types.InputError, types.KindOf(err))
}

func TestImportTracks_SkipsTracksWithoutURI(t *testing.T) {
	store := newStore(t)
	tracks := []m3u.Track{
		{Name: "no uri", Length: 10},
		{Name: "live", Length: -1, URI: "https://cdn.example.com/live.m3u8"},
	}

	report, err := ImportTracks(tracks, store)
	require.NoError(t, err)
	assert.Equal(t, Report{Imported: 1, Skipped: 1}, report)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].Duration)
}

type failingStore struct{}

func (failingStore) Upsert(types.HistoryUpdate) (types.HistoryRecord, bool, error) {
	return types.HistoryRecord{}, false, types.NewPersistenceError(errors.New("disk full"), "write history")
}

func TestImportTracks_StopsOnStoreFailure(t *testing.T) {
	report, err := ImportTracks([]m3u.Track{{URI: "https://a/1.m3u8"}, {URI: "https://a/2.m3u8"}}, failingStore{})
	require.Error(t, err)
	assert.Equal(t, types.PersistenceError, types.KindOf(err))
	assert.Zero(t, report.Imported)
}
