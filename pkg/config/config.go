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

package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HostConfiguration containt host infos
type HostConfiguration struct {
	Hostname string
	Port     int
}

// SourceConfig holds the per-site request headers of a source adapter
type SourceConfig struct {
	Referer string
	Origin  string
}

// ProxyConfig Contain original stream-relay config
type ProxyConfig struct {
	HostConfig *HostConfiguration

	// History ledger
	HistoryFile  string
	HistoryLimit int

	// Upstream requests
	UserAgent    string
	FetchTimeout time.Duration
	ProxyTimeout time.Duration
	FetchRPS     float64

	// Headers forced on every /proxy/ request
	ProxyOrigin         string
	ProxyReferer        string
	ProxyAcceptLanguage string

	Sources map[string]SourceConfig

	StaticDir    string
	DebugLogging bool
}

// Default values shared by the CLI flags and tests.
const (
	DefaultPort                = 8000
	DefaultHistoryFile         = "history.json"
	DefaultHistoryLimit        = 50
	DefaultFetchTimeout        = 20 * time.Second
	DefaultProxyTimeout        = 30 * time.Second
	DefaultFetchRPS            = 4
	DefaultProxyOrigin         = "https://www.anroll.net"
	DefaultProxyReferer        = "https://www.anroll.net/"
	DefaultProxyAcceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Validate checks the values a server cannot start without.
func (c *ProxyConfig) Validate() error {
	if c.HostConfig == nil || c.HostConfig.Port <= 0 || c.HostConfig.Port > 65535 {
		return fmt.Errorf("invalid port")
	}
	if strings.TrimSpace(c.HistoryFile) == "" {
		return fmt.Errorf("history file is required")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.FetchTimeout <= 0 || c.ProxyTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Source returns the adapter settings for name, falling back to def for
// every field left empty.
func (c *ProxyConfig) Source(name string, def SourceConfig) SourceConfig {
	sc, ok := c.Sources[name]
	if !ok {
		return def
	}
	if sc.Referer == "" {
		sc.Referer = def.Referer
	}
	if sc.Origin == "" {
		sc.Origin = def.Origin
	}
	return sc
}

// ProxyHeaders is the fixed header set sent with every relayed request.
func (c *ProxyConfig) ProxyHeaders() http.Header {
	h := http.Header{}
	h.Set("Origin", c.ProxyOrigin)
	h.Set("Referer", c.ProxyReferer)
	h.Set("User-Agent", c.UserAgent)
	h.Set("Accept-Language", c.ProxyAcceptLanguage)
	h.Set("Accept", "*/*")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	return h
}
