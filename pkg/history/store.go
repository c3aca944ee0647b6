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

// Package history keeps the watch-progress ledger: a small JSON file of
// records, unique per episode identity and ordered by recency.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
	"github.com/spf13/afero"
)

// DefaultLimit is how many records survive each save.
const DefaultLimit = 50

var (
	ErrPathRequired         = errors.New("history file path not provided")
	ErrUnresolvableIdentity = types.NewInputError("unresolvable identity: one of episodeId, streamUrl, playerUrl or pageUrl is required")
	ErrRecordNotFound       = types.NewNotFoundError("history record not found")
)

// Store is the single owner of the history file. Every operation re-reads
// the file, so the file stays the source of truth; the mutex serializes the
// read-merge-write cycles of concurrent requests.
type Store struct {
	mu    sync.Mutex
	fs    afero.Fs
	path  string
	limit int
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem the store file lives on.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLimit sets how many records are kept on save.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a store persisting to path, creating its directory.
func NewStore(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	s := &Store{
		fs:    afero.NewOsFs(),
		path:  path,
		limit: DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// List returns every record, one per identity, most recent first. A file
// holding duplicates is rewritten in its collapsed form.
func (s *Store) List() ([]types.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := s.load()
	records := dedupe(loaded)
	sortByRecency(records)

	if len(records) != len(loaded) {
		utils.InfoLog("History: collapsed %d duplicate records", len(loaded)-len(records))
		if _, err := s.save(records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Upsert merges u into the record sharing its identity, or inserts it.
// The stored result is returned; kept is false when the size cap evicted it
// on save because every other record is more recent.
func (s *Store) Upsert(u types.HistoryUpdate) (rec types.HistoryRecord, kept bool, err error) {
	u = normalizeUpdate(u)
	key := UpdateKey(u)
	if key == "" {
		return types.HistoryRecord{}, false, ErrUnresolvableIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	records := dedupe(s.load())

	var stored types.HistoryRecord
	found := false
	for i, r := range records {
		if Key(r) == key {
			stored = merge(r, key, u, now)
			records[i] = stored
			found = true
			break
		}
	}
	if !found {
		stored = newRecord(key, u, now)
		records = append(records, stored)
	}
	utils.DebugLog("History: upsert %s (existing=%v, watched=%v, t=%.1f/%.1f)",
		utils.MaskURL(key), found, stored.Watched, stored.CurrentTime, stored.Duration)

	evicted, err := s.save(records)
	if err != nil {
		return types.HistoryRecord{}, false, err
	}
	for _, r := range evicted {
		if Key(r) == key {
			utils.DebugLog("History: %s is older than the %d kept records, evicted on save",
				utils.MaskURL(key), s.limit)
			return stored, false, nil
		}
	}
	return stored, true, nil
}

// Delete removes every record sharing u's identity. When that removes
// nothing, records whose episode or page facet matches one of u's are
// removed instead. It returns the number of records removed.
func (s *Store) Delete(u types.HistoryUpdate) (int, error) {
	u = normalizeUpdate(u)
	key := UpdateKey(u)

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	kept := records[:0:0]
	if key != "" {
		for _, r := range records {
			if Key(r) != key {
				kept = append(kept, r)
			}
		}
	}

	if len(kept) == len(records) || key == "" {
		facets := updateCompoundKeys(u)
		kept = kept[:0]
		for _, r := range records {
			if !intersects(CompoundKeys(r), facets) {
				kept = append(kept, r)
			}
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, ErrRecordNotFound
	}
	if _, err := s.save(kept); err != nil {
		return 0, err
	}
	utils.DebugLog("History: removed %d record(s) for %s", removed, utils.MaskURL(key))
	return removed, nil
}

// load reads the file. A missing, unreadable or undecodable file is an
// empty ledger, never an error.
func (s *Store) load() []types.HistoryRecord {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			utils.WarnLog("History: cannot read %s, starting empty: %v", s.path, err)
		}
		return nil
	}
	records, err := decodeRecords(data)
	if err != nil {
		utils.WarnLog("History: %s is corrupt, starting empty: %v", s.path, err)
		return nil
	}
	return records
}

// save sorts, truncates to the limit and atomically replaces the file.
func (s *Store) save(records []types.HistoryRecord) (evicted []types.HistoryRecord, err error) {
	out := make([]types.HistoryRecord, len(records))
	copy(out, records)
	sortByRecency(out)
	if len(out) > s.limit {
		evicted = out[s.limit:]
		out = out[:s.limit]
		utils.DebugLog("History: cap of %d reached, dropping %d oldest record(s)", s.limit, len(evicted))
	}

	data, err := encodeRecords(out)
	if err != nil {
		return nil, types.NewPersistenceError(err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return nil, types.NewPersistenceError(err, "write history")
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return nil, types.NewPersistenceError(err, "replace history")
	}
	return evicted, nil
}

// dedupe keeps one record per identity: the most recently watched, the
// earlier one on ties. Records without identity are all kept.
func dedupe(records []types.HistoryRecord) []types.HistoryRecord {
	out := make([]types.HistoryRecord, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		key := Key(r)
		if key == "" {
			out = append(out, r)
			continue
		}
		r.EpisodeID = key
		if i, ok := index[key]; ok {
			if r.LastWatched.After(out[i].LastWatched) {
				out[i] = r
			}
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}

func sortByRecency(records []types.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LastWatched.After(records[j].LastWatched)
	})
}
