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

package types

import "time"

// PlayerType tells the front-end how to play an extracted link.
type PlayerType string

const (
	// PlayerHLS is a manifest to hand to an HLS player (through /proxy/).
	PlayerHLS PlayerType = "hls"
	// PlayerExternalEmbed is a third-party player page to load in an iframe.
	PlayerExternalEmbed PlayerType = "external-embed"
)

// PageExtractionResult is the outcome of one extraction call
type PageExtractionResult struct {
	StreamURL  string     `json:"streamUrl"`
	Title      string     `json:"title,omitempty"`
	PlayerType PlayerType `json:"playerType"`
	Source     string     `json:"source"`
	Note       string     `json:"note,omitempty"`
}

// HistoryRecord is one entry of the persisted watch history
type HistoryRecord struct {
	EpisodeID   string    `json:"episodeId"`
	StreamURL   string    `json:"streamUrl,omitempty"`
	PlayerURL   string    `json:"playerUrl,omitempty"`
	PageURL     string    `json:"pageUrl,omitempty"`
	Title       string    `json:"title,omitempty"`
	Source      string    `json:"source,omitempty"`
	Watched     bool      `json:"watched"`
	CurrentTime float64   `json:"currentTime"`
	Duration    float64   `json:"duration"`
	LastWatched time.Time `json:"lastWatched"`
}

// HistoryUpdate is a partial record posted by a client. A nil field was not
// sent and must not overwrite the stored value.
type HistoryUpdate struct {
	EpisodeID   *string    `json:"episodeId,omitempty"`
	StreamURL   *string    `json:"streamUrl,omitempty"`
	PlayerURL   *string    `json:"playerUrl,omitempty"`
	PageURL     *string    `json:"pageUrl,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Watched     *bool      `json:"watched,omitempty"`
	CurrentTime *float64   `json:"currentTime,omitempty"`
	Duration    *float64   `json:"duration,omitempty"`
	LastWatched *time.Time `json:"lastWatched,omitempty"`
}

// APIResponse is a standardized API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
