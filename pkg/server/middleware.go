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
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags each request with the caller's X-Request-ID or a fresh one.
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := strings.TrimSpace(ctx.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(requestIDHeader, id)
		ctx.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, proxyPrefix) {
			// segment traffic is too chatty for info
			utils.DebugLog("[%s] %s %s -> %d (%s)", ctx.GetString(requestIDKey), ctx.Request.Method,
				utils.MaskURL(path), ctx.Writer.Status(), time.Since(start))
			return
		}
		utils.InfoLog("[%s] %s %s -> %d (%s)", ctx.GetString(requestIDKey), ctx.Request.Method,
			path, ctx.Writer.Status(), time.Since(start))
	}
}

// recovery keeps a panicking handler from taking down the server.
func recovery() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				utils.ErrorLog("PANIC RECOVERED [%s]: %v\nStack trace: %s", ctx.GetString(requestIDKey), err, debug.Stack())
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, types.APIResponse{
					Error: fmt.Sprintf("Internal server error: %v", err),
				})
			}
		}()
		ctx.Next()
	}
}

// corsMiddleware lets a player served from any origin call the API and
// the relay.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Content-Type", "Origin", "Referer", "User-Agent", "Accept-Language", "Range", "If-Range", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader, "Content-Type", "Content-Range", "Accept-Ranges"},
		MaxAge:          12 * time.Hour,
	})
}
