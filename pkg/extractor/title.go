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
	"regexp"
	"strings"
)

var (
	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1TagPattern    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// Title returns the page's <title>, or its first <h1>, with whitespace
// collapsed. Empty when neither is present.
func (p *Page) Title() string {
	if doc := p.Document(); doc != nil {
		if t := collapse(doc.Find("title").First().Text()); t != "" {
			return t
		}
		return collapse(doc.Find("h1").First().Text())
	}

	for _, re := range []*regexp.Regexp{titleTagPattern, h1TagPattern} {
		if m := re.FindStringSubmatch(p.Raw); m != nil {
			if t := collapse(tagPattern.ReplaceAllString(m[1], " ")); t != "" {
				return t
			}
		}
	}
	return ""
}

// Title is a convenience wrapper for one-off scans.
func Title(html string) string {
	return NewPage(html).Title()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
