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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// decodeRecords reads a persisted array leniently: entries that are not
// objects are skipped, and fields written by older front-ends (epoch
// millisecond timestamps, numbers as strings) are accepted.
func decodeRecords(data []byte) ([]types.HistoryRecord, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var records []types.HistoryRecord
	skipped := 0
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil || dataType != jsonparser.Object {
			skipped++
			return
		}
		records = append(records, decodeRecord(value))
	})
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if skipped > 0 {
		utils.WarnLog("History file: skipped %d malformed entries", skipped)
	}
	return records, nil
}

func decodeRecord(data []byte) types.HistoryRecord {
	var r types.HistoryRecord
	r.EpisodeID, _ = lookupString(data, "episodeId")
	r.StreamURL, _ = lookupString(data, "streamUrl")
	r.PlayerURL, _ = lookupString(data, "playerUrl")
	r.PageURL, _ = lookupString(data, "pageUrl")
	r.Title, _ = lookupString(data, "title")
	r.Source, _ = lookupString(data, "source")
	r.Watched, _ = lookupBool(data, "watched")
	r.CurrentTime, _ = lookupFloat(data, "currentTime")
	r.Duration, _ = lookupFloat(data, "duration")
	r.LastWatched, _ = lookupTime(data, "lastWatched")
	return r
}

// DecodeUpdate reads a partial record posted by a client with the same
// leniency as the file loader. Keys that are absent, null or unparsable
// stay nil.
func DecodeUpdate(data []byte) (types.HistoryUpdate, error) {
	err := jsonparser.ObjectEach(data, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
		return nil
	})
	if err != nil {
		return types.HistoryUpdate{}, types.NewInputError("request body must be a JSON object")
	}

	var u types.HistoryUpdate
	u.EpisodeID = optional(lookupString(data, "episodeId"))
	u.StreamURL = optional(lookupString(data, "streamUrl"))
	u.PlayerURL = optional(lookupString(data, "playerUrl"))
	u.PageURL = optional(lookupString(data, "pageUrl"))
	u.Title = optional(lookupString(data, "title"))
	u.Source = optional(lookupString(data, "source"))
	u.Watched = optional(lookupBool(data, "watched"))
	u.CurrentTime = optional(lookupFloat(data, "currentTime"))
	u.Duration = optional(lookupFloat(data, "duration"))
	u.LastWatched = optional(lookupTime(data, "lastWatched"))
	return u, nil
}

func optional[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}

func lookupString(data []byte, key string) (string, bool) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if err != nil {
		return "", false
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return "", false
		}
		return s, true
	case jsonparser.Number:
		return string(value), true
	default:
		return "", false
	}
}

func lookupBool(data []byte, key string) (bool, bool) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if err != nil {
		return false, false
	}
	switch dataType {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		return b, err == nil
	case jsonparser.String:
		b, err := strconv.ParseBool(strings.TrimSpace(string(value)))
		return b, err == nil
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		return f != 0, err == nil
	default:
		return false, false
	}
}

func lookupFloat(data []byte, key string) (float64, bool) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if err != nil {
		return 0, false
	}
	switch dataType {
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		return f, err == nil
	case jsonparser.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(value)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// lookupTime accepts RFC 3339 strings and epoch milliseconds, as a number
// or a numeric string.
func lookupTime(data []byte, key string) (time.Time, bool) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if err != nil {
		return time.Time{}, false
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
			return t, true
		}
		if ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	default:
		return time.Time{}, false
	}
}

func encodeRecords(records []types.HistoryRecord) ([]byte, error) {
	if records == nil {
		records = []types.HistoryRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}
