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

package extractor

import (
	"errors"
	"testing"

	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		want     string
		strategy string
	}{
		{
			name:     "inline script variable",
			html:     `<script>var streamUrl="https://cdn1.example.com/a.m3u8?x=1";</script>`,
			want:     "https://cdn1.example.com/a.m3u8?x=1",
			strategy: "full-url",
		},
		{
			name:     "single url in document",
			html:     `<video src="https://files.example.org/ep/12/index.m3u8"></video>`,
			want:     "https://files.example.org/ep/12/index.m3u8",
			strategy: "full-url",
		},
		{
			name: "preferred token wins over earlier plain match",
			html: `<a href="https://ads.example.com/promo.m3u8">ad</a>
				<video src="https://video.example.com/hls/ep1/master.m3u8"></video>`,
			want:     "https://video.example.com/hls/ep1/master.m3u8",
			strategy: "full-url",
		},
		{
			name: "first preferred match in document order wins regardless of token rank",
			html: `<p>https://x.example.com/media/a.m3u8</p>
				<p>https://cdn.example.com/b.m3u8</p>`,
			want:     "https://x.example.com/media/a.m3u8",
			strategy: "full-url",
		},
		{
			name: "no preferred token falls back to first match",
			html: `<p>https://one.example.com/a.m3u8</p>
				<p>https://two.example.com/b.m3u8</p>`,
			want:     "https://one.example.com/a.m3u8",
			strategy: "full-url",
		},
		{
			name:     "escaped slashes in attribute-like key",
			html:     `<div data-config='{"file":"https:\/\/cdn.example.com\/v\/ep3.m3u8"}'></div>`,
			want:     "https://cdn.example.com/v/ep3.m3u8",
			strategy: "attribute",
		},
		{
			name:     "relative attribute values are skipped",
			html:     `<source src="/local/ep.m3u8"><div data-hls="http:\/\/edge.example.net\/ep.m3u8"></div>`,
			want:     "http://edge.example.net/ep.m3u8",
			strategy: "attribute",
		},
		{
			name:     "escaped slashes inside script",
			html:     `<html><script>window.cfg = {x: 1}; load(https:\/\/stream.example.com\/live\/a.m3u8)</script></html>`,
			want:     "https://stream.example.com/live/a.m3u8",
			strategy: "inline-script",
		},
		{
			name:     "backtick string inside script",
			html:     "<script>player.src = `https:\\/\\/v.example.com\\/ep.m3u8`</script>",
			want:     "https://v.example.com/ep.m3u8",
			strategy: "inline-script",
		},
		{
			name:     "host name containing m3u8",
			html:     `<video src="https://hls.m3u8cdn.example.com/v/a.m3u8"></video>`,
			want:     "https://hls.m3u8cdn.example.com/v/a.m3u8",
			strategy: "full-url",
		},
		{
			name:     "path with two m3u8 segments",
			html:     `<p>https://cdn.example.com/list.m3u8/seg.m3u8</p>`,
			want:     "https://cdn.example.com/list.m3u8/seg.m3u8",
			strategy: "full-url",
		},
		{
			name:     "url not ending in m3u8 is ignored",
			html:     `<a href="https://cdn.example.com/a.m3u8.bak">old</a><video src="https://v.example.com/ep.m3u8"></video>`,
			want:     "https://v.example.com/ep.m3u8",
			strategy: "full-url",
		},
		{
			name:     "escaped path with two m3u8 segments inside script",
			html:     `<script>cfg = {"u":"https:\/\/m3u8host.example\/x\/list.m3u8\/seg.m3u8\"}</script>`,
			want:     "https://m3u8host.example/x/list.m3u8/seg.m3u8",
			strategy: "inline-script",
		},
		{
			name:     "sanitizes trailing punctuation",
			html:     `<p>play(https://cdn.example.com/a.m3u8?t=1);</p>`,
			want:     "https://cdn.example.com/a.m3u8?t=1",
			strategy: "full-url",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.URL)
			assert.Equal(t, tt.strategy, got.Strategy)
		})
	}
}

func TestExtract_AssignmentStrategy(t *testing.T) {
	e := NewWithStrategies(Strategy{Name: "assignment", Find: findAssignment})

	got, err := e.Extract(`var hlsSource = 'https:\/\/cdn.example.com\/a.m3u8'; var other = "x";`)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.m3u8", got.URL)

	got, err = e.Extract(`video.src = "https://m.example.com/b.m3u8"`)
	require.NoError(t, err)
	assert.Equal(t, "https://m.example.com/b.m3u8", got.URL)

	_, err = e.Extract(`var fileUrl = "/relative/c.m3u8"`)
	assert.ErrorIs(t, err, ErrStreamNotFound)
}

func TestExtract_StopsAtFirstScriptWithMatch(t *testing.T) {
	e := NewWithStrategies(Strategy{Name: "inline-script", Find: findInScripts})
	html := `<script>var a = 1;</script>
		<script>load("https:\/\/plain.example.com\/one.m3u8")</script>
		<script>load("https:\/\/cdn.example.com\/two.m3u8")</script>`

	got, err := e.Extract(html)
	require.NoError(t, err)
	assert.Equal(t, "https://plain.example.com/one.m3u8", got.URL)
}

func TestExtract_NotFound(t *testing.T) {
	inputs := []string{
		"",
		`<html><head><title>Nothing here</title></head><body><video src="/a.mp4"></video></body></html>`,
		`<script>var streamUrl = "https://cdn.example.com/video.mp4";</script>`,
	}
	for _, html := range inputs {
		_, err := New().Extract(html)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStreamNotFound))
		assert.Equal(t, types.NotFoundError, types.KindOf(err))
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`https://cdn.example.com/a.m3u8`, `https://cdn.example.com/a.m3u8`},
		{`  "https://cdn.example.com/a.m3u8"  `, `https://cdn.example.com/a.m3u8`},
		{`https:\/\/cdn.example.com\/a.m3u8`, `https://cdn.example.com/a.m3u8`},
		{`'https://cdn.example.com/a.m3u8');`, `https://cdn.example.com/a.m3u8`},
		{`<https://cdn.example.com/a.m3u8>`, `https://cdn.example.com/a.m3u8`},
		{`' "https://x/a.m3u8" '`, `https://x/a.m3u8`},
		{``, ``},
	}
	for _, tt := range tests {
		got := Sanitize(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent for %q", tt.in)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Naruto Episode 5", Title("<html><head><title>\n  Naruto\n\tEpisode 5 </title></head><h1>Other</h1></html>"))
	assert.Equal(t, "Heading Only", Title("<body><h1> Heading <b>Only</b></h1><h1>Second</h1></body>"))
	assert.Equal(t, "Heading", Title("<title>   </title><h1>Heading</h1>"))
	assert.Equal(t, "", Title("<p>no title</p>"))
}
