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
	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/fetch"
	"github.com/lucasduport/stream-relay/pkg/history"
	"github.com/lucasduport/stream-relay/pkg/sources"
	"github.com/lucasduport/stream-relay/pkg/utils"
	"github.com/spf13/viper"
)

// proxyConfigFromViper assembles the configuration from flags, environment
// and config file. Subcommands get defaults for server-only keys.
func proxyConfigFromViper() *config.ProxyConfig {
	conf := &config.ProxyConfig{
		HostConfig: &config.HostConfiguration{
			Hostname: viper.GetString("hostname"),
			Port:     viper.GetInt("port"),
		},
		HistoryFile:         viper.GetString("history-file"),
		HistoryLimit:        viper.GetInt("history-limit"),
		UserAgent:           viper.GetString("user-agent"),
		FetchTimeout:        viper.GetDuration("fetch-timeout"),
		ProxyTimeout:        viper.GetDuration("proxy-timeout"),
		FetchRPS:            viper.GetFloat64("fetch-rps"),
		ProxyOrigin:         viper.GetString("proxy-origin"),
		ProxyReferer:        viper.GetString("proxy-referer"),
		ProxyAcceptLanguage: config.DefaultProxyAcceptLanguage,
		StaticDir:           viper.GetString("static-dir"),
		DebugLogging:        viper.GetBool("debug-logging"),
		Sources: map[string]config.SourceConfig{
			sources.AnrollName: {
				Referer: viper.GetString("sources.anroll.referer"),
				Origin:  viper.GetString("sources.anroll.origin"),
			},
			sources.AnimesOnlineName: {
				Referer: viper.GetString("sources.animesonline.referer"),
				Origin:  viper.GetString("sources.animesonline.origin"),
			},
		},
	}

	if conf.HostConfig.Port == 0 {
		conf.HostConfig.Port = config.DefaultPort
	}
	if conf.UserAgent == "" {
		conf.UserAgent = utils.GetUserAgent()
	}
	if conf.ProxyTimeout == 0 {
		conf.ProxyTimeout = config.DefaultProxyTimeout
	}
	if conf.ProxyOrigin == "" {
		conf.ProxyOrigin = config.DefaultProxyOrigin
	}
	if conf.ProxyReferer == "" {
		conf.ProxyReferer = config.DefaultProxyReferer
	}
	return conf
}

func openHistory(conf *config.ProxyConfig) (*history.Store, error) {
	return history.NewStore(conf.HistoryFile, history.WithLimit(conf.HistoryLimit))
}

func newRegistry(conf *config.ProxyConfig) *sources.Registry {
	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(conf.FetchTimeout),
		fetch.WithUserAgent(conf.UserAgent),
		fetch.WithRateLimit(conf.FetchRPS),
	)
	return sources.DefaultRegistry(fetcher, conf)
}
