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

// Package server exposes extraction, watch history and the stream relay
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucasduport/stream-relay/pkg/config"
	"github.com/lucasduport/stream-relay/pkg/fetch"
	"github.com/lucasduport/stream-relay/pkg/history"
	"github.com/lucasduport/stream-relay/pkg/sources"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

// Config represent the server configuration
type Config struct {
	*config.ProxyConfig

	registry *sources.Registry
	history  *history.Store

	// relay client for /proxy/, bounded by ProxyTimeout
	proxyClient *http.Client

	startedAt time.Time
}

// NewServer initializes a new server configuration with all necessary components
func NewServer(conf *config.ProxyConfig) (*Config, error) {
	if err := conf.Validate(); err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}

	store, err := history.NewStore(conf.HistoryFile, history.WithLimit(conf.HistoryLimit))
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}
	utils.InfoLog("History file: %s (keeping %d records)", store.Path(), conf.HistoryLimit)

	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(conf.FetchTimeout),
		fetch.WithUserAgent(conf.UserAgent),
		fetch.WithRateLimit(conf.FetchRPS),
	)
	registry := sources.DefaultRegistry(fetcher, conf)
	utils.InfoLog("Source adapters: %v", registry.Names())

	return newServer(conf, registry, store), nil
}

func newServer(conf *config.ProxyConfig, registry *sources.Registry, store *history.Store) *Config {
	return &Config{
		ProxyConfig: conf,
		registry:    registry,
		history:     store,
		proxyClient: newProxyClient(conf.ProxyTimeout),
		startedAt:   time.Now(),
	}
}

// newProxyClient is tuned for relaying manifests and segments; the overall
// timeout also bounds the body copy.
func newProxyClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Router builds the gin engine with every route and middleware.
func (c *Config) Router() *gin.Engine {
	if c.DebugLogging {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestID(), accessLog(), recovery())
	router.Use(corsMiddleware())
	c.routes(router)
	return router
}

// Serve the stream-relay api until ctx is cancelled
func (c *Config) Serve(ctx context.Context) error {
	utils.InfoLog("[stream-relay] Server is starting...")

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", c.HostConfig.Hostname, c.HostConfig.Port),
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLog("[stream-relay] Server is ready and listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return utils.PrintErrorAndReturn(err)
	case <-ctx.Done():
	}

	utils.InfoLog("[stream-relay] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return utils.PrintErrorAndReturn(err)
	}
	utils.InfoLog("[stream-relay] Server stopped")
	return nil
}
