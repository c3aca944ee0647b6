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

// Package extractor locates an HLS manifest URL inside arbitrary page text.
//
// The search is an ordered cascade of independent strategies. The first
// strategy to produce a candidate wins and later strategies are not tried.
// The winning candidate is sanitized exactly once.
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// ErrStreamNotFound is returned when every strategy came back empty.
var ErrStreamNotFound = types.NewNotFoundError("stream URL not found")

var (
	// absolute URL whose path ends in .m3u8, optional query or fragment. The
	// trailing group pins the match to the end of the URL so ".m3u8" inside a
	// host name or an earlier path segment is not taken as the end.
	fullURLPattern = regexp.MustCompile(`(https?://[^\s"'<>\\]+?\.m3u8(?:[?#][^\s"'<>\\]*)?)(?:[\s"'<>\\,;)\]}&` + "`" + `]|$)`)
	// same, but also accepts JSON-escaped slashes as found in inline config objects
	escapedURLPattern = regexp.MustCompile(`(https?:(?:\\?/){2}[^\s"'<>]+?\.m3u8(?:[?#][^\s"'<>]*)?)(?:\\?["'` + "`" + `]|[\s<>,;)\]}&]|$)`)
	attributePattern  = regexp.MustCompile(`(?i)\b(?:data-)?(?:src|url|source|file|stream|hls|playlist)["']?\s*[:=]\s*["']([^"']*\.m3u8[^"']*)["']`)
	quotedPattern     = regexp.MustCompile(`["']([^"']*\.m3u8[^"']*)["']`)
	assignPattern     = regexp.MustCompile("(?i)(?:\\b[\\w$]*(?:url|src|stream|hls|source|file)[\\w$]*|\\b(?:video|player|media)\\.(?:src|url|source))\\s*[:=]\\s*[\"'`]([^\"'`]*\\.m3u8[^\"'`]*)[\"'`]")
	scriptPattern     = regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`)
)

var (
	documentTokens = []string{"cdn", "stream", "hls", "media"}
	scriptTokens   = []string{"cdn", "stream", "hls"}
	quotedTokens   = []string{"cdn", "stream"}
)

// Strategy is one step of the cascade.
type Strategy struct {
	Name string
	Find func(p *Page) (string, bool)
}

// DefaultStrategies is the cascade in the order it is tried.
var DefaultStrategies = []Strategy{
	{Name: "full-url", Find: findFullURL},
	{Name: "attribute", Find: findAttribute},
	{Name: "inline-script", Find: findInScripts},
	{Name: "assignment", Find: findAssignment},
}

// Match is a sanitized manifest URL and the strategy that produced it.
type Match struct {
	URL      string
	Strategy string
}

// Extractor runs a strategy cascade.
type Extractor struct {
	strategies []Strategy
}

// New returns an Extractor using DefaultStrategies.
func New() *Extractor {
	return &Extractor{strategies: DefaultStrategies}
}

// NewWithStrategies returns an Extractor trying strategies in the given order.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract finds the manifest URL in html.
func (e *Extractor) Extract(html string) (Match, error) {
	return e.ExtractPage(NewPage(html))
}

// ExtractPage is Extract over an already wrapped page.
func (e *Extractor) ExtractPage(p *Page) (Match, error) {
	for _, s := range e.strategies {
		candidate, ok := s.Find(p)
		if !ok {
			continue
		}
		url := Sanitize(candidate)
		if url == "" {
			continue
		}
		utils.DebugLog("Manifest located by %s strategy: %s", s.Name, utils.MaskURL(url))
		return Match{URL: url, Strategy: s.Name}, nil
	}
	return Match{}, ErrStreamNotFound
}

// Page is the text under inspection. The HTML tree is parsed on first use
// and shared by every strategy and the title scan.
type Page struct {
	Raw    string
	doc    *goquery.Document
	parsed bool
}

// NewPage wraps raw page text.
func NewPage(raw string) *Page {
	return &Page{Raw: raw}
}

// Document returns the parsed tree, or nil when the text cannot be parsed.
func (p *Page) Document() *goquery.Document {
	if !p.parsed {
		p.parsed = true
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Raw))
		if err != nil {
			utils.DebugLog("HTML parse failed, falling back to raw scanning: %v", err)
		} else {
			p.doc = doc
		}
	}
	return p.doc
}

// Scripts returns the bodies of the page's script blocks in document order.
func (p *Page) Scripts() []string {
	var scripts []string
	if doc := p.Document(); doc != nil {
		doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			scripts = append(scripts, s.Text())
		})
		return scripts
	}
	for _, m := range scriptPattern.FindAllStringSubmatch(p.Raw, -1) {
		scripts = append(scripts, m[1])
	}
	return scripts
}

func findFullURL(p *Page) (string, bool) {
	return preferred(urlMatches(fullURLPattern, p.Raw), documentTokens)
}

func findAttribute(p *Page) (string, bool) {
	var values []string
	for _, m := range attributePattern.FindAllStringSubmatch(p.Raw, -1) {
		values = append(values, m[1])
	}
	for _, m := range quotedPattern.FindAllStringSubmatch(p.Raw, -1) {
		if containsAny(m[1], quotedTokens) {
			values = append(values, m[1])
		}
	}
	return firstHTTP(values)
}

func findInScripts(p *Page) (string, bool) {
	for _, script := range p.Scripts() {
		if url, ok := preferred(urlMatches(escapedURLPattern, script), scriptTokens); ok {
			return url, true
		}
	}
	return "", false
}

func findAssignment(p *Page) (string, bool) {
	var values []string
	for _, m := range assignPattern.FindAllStringSubmatch(p.Raw, -1) {
		values = append(values, m[1])
	}
	return firstHTTP(values)
}

// urlMatches returns the URL group of every match, without the terminator.
func urlMatches(re *regexp.Regexp, s string) []string {
	var urls []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		urls = append(urls, m[1])
	}
	return urls
}

// preferred returns the first match containing one of tokens, else the
// first match.
func preferred(matches []string, tokens []string) (string, bool) {
	if len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if containsAny(m, tokens) {
			return m, true
		}
	}
	return matches[0], true
}

func firstHTTP(values []string) (string, bool) {
	for _, v := range values {
		if strings.HasPrefix(strings.TrimSpace(v), "http") {
			return v, true
		}
	}
	return "", false
}

func containsAny(s string, tokens []string) bool {
	lower := strings.ToLower(s)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
