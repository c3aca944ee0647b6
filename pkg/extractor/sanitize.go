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

import "strings"

var strippedChars = strings.NewReplacer(`\`, "", "<", "", ">", "", ";", "", ")", "")

// wrapping characters trimmed from both ends, interleaved in any order
const wrapCutset = " \t\r\n\"'`"

// Sanitize cleans a captured URL of markup and punctuation the patterns can
// drag along. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	return strings.Trim(strippedChars.Replace(raw), wrapCutset)
}
