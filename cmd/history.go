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
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the watch history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history records, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(proxyConfigFromViper())
		if err != nil {
			return err
		}
		records, err := store.List()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		return printRecords(cmd, records)
	},
}

func printRecords(cmd *cobra.Command, records []types.HistoryRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LAST WATCHED\tPROGRESS\tWATCHED\tTITLE\tEPISODE")
	for _, r := range records {
		title := r.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
			r.LastWatched.Local().Format("2006-01-02 15:04"),
			progress(r.CurrentTime, r.Duration),
			r.Watched,
			title,
			r.EpisodeID,
		)
	}
	return w.Flush()
}

func progress(current, duration float64) string {
	pos := time.Duration(current * float64(time.Second)).Truncate(time.Second)
	if duration <= 0 {
		return pos.String()
	}
	total := time.Duration(duration * float64(time.Second)).Truncate(time.Second)
	return fmt.Sprintf("%s/%s", pos, total)
}

func init() {
	historyListCmd.Flags().Bool("json", false, "Print records as JSON")
	historyCmd.AddCommand(historyListCmd)
	rootCmd.AddCommand(historyCmd)
}
