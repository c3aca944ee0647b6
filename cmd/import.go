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

package cmd

import (
	"fmt"

	"github.com/lucasduport/stream-relay/pkg/playlist"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import-m3u <path-or-url>",
	Short: "Seed the watch history from an M3U playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(proxyConfigFromViper())
		if err != nil {
			return err
		}

		report, err := playlist.Import(args[0], store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d track(s) into %s", report.Imported, store.Path())
		if report.Skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " (%d without URI skipped)", report.Skipped)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
