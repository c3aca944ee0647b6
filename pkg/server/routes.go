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

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

const proxyPrefix = "/proxy/"

func (c *Config) routes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/extract", c.extract)
	api.GET("/history", c.listHistory)
	api.POST("/history", c.upsertHistory)
	api.DELETE("/history", c.deleteHistory)
	api.GET("/status", c.status)

	r.Any(proxyPrefix+"*target", c.proxyStream)

	if c.StaticDir != "" {
		utils.InfoLog("Serving static files from %s", c.StaticDir)
		r.NoRoute(gin.WrapH(http.FileServer(gin.Dir(c.StaticDir, false))))
		return
	}
	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, types.APIResponse{Error: "not found"})
	})
}
