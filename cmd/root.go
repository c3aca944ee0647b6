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
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/server"
	"github.com/lucasduport/stream-relay/pkg/utils"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stream-relay",
	Short: "Extract, relay and track HLS streams from video pages",
	Long: `stream-relay turns a video page URL into a playable stream link and
relays the stream with the headers its CDN expects.

It supports:
- Link extraction from supported sites (anroll, animesonline)
- An HLS relay under /proxy/ that forces Origin/Referer/User-Agent
- A watch history ledger, deduplicated per episode
- Importing M3U playlists into the history`,

	Run: func(cmd *cobra.Command, args []string) {
		conf := proxyConfigFromViper()

		srv, err := server.NewServer(conf)
		if err != nil {
			log.Fatal(err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := srv.Serve(ctx); err != nil {
			log.Fatal(err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	defer utils.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.stream-relay.yaml)")

	// Shared by the server and the subcommands
	rootCmd.PersistentFlags().String("history-file", config.DefaultHistoryFile, "Path of the watch history JSON file")
	rootCmd.PersistentFlags().Int("history-limit", config.DefaultHistoryLimit, "Number of history records kept")
	rootCmd.PersistentFlags().Duration("fetch-timeout", config.DefaultFetchTimeout, "Timeout for fetching source pages")
	rootCmd.PersistentFlags().Float64("fetch-rps", config.DefaultFetchRPS, "Page fetches per second allowed per host (0 disables)")
	rootCmd.PersistentFlags().String("user-agent", "", "User-Agent sent upstream (default is a desktop Chrome)")
	rootCmd.PersistentFlags().Bool("debug-logging", false, "Enable debug logging")

	// Server flags
	rootCmd.Flags().Int("port", config.DefaultPort, "Listening port")
	rootCmd.Flags().String("hostname", "", "Listening address")
	rootCmd.Flags().Duration("proxy-timeout", config.DefaultProxyTimeout, "Timeout for relayed /proxy/ requests")
	rootCmd.Flags().String("static-dir", "", "Directory served for unmatched routes (player front-end)")
	rootCmd.Flags().String("proxy-origin", config.DefaultProxyOrigin, "Origin header sent on relayed requests")
	rootCmd.Flags().String("proxy-referer", config.DefaultProxyReferer, "Referer header sent on relayed requests")

	// Bind all flags to viper
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		log.Fatal("Error binding persistent PFlags to viper")
	}
	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		log.Fatal("Error binding PFlags to viper")
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory and current directory
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".stream-relay")
	}

	// Replace hyphens and dots with underscores in environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Read environment variables
	viper.AutomaticEnv()

	// Read in config file if found
	if err := viper.ReadInConfig(); err == nil {
		utils.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}

	utils.SetDebug(viper.GetBool("debug-logging"))
}
