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
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucasduport/stream-relay/pkg/history"
	"github.com/lucasduport/stream-relay/pkg/types"
	"github.com/lucasduport/stream-relay/pkg/utils"
)

// maxHistoryBody bounds POST/DELETE /api/history payloads.
const maxHistoryBody = 64 << 10

// extractResponse flattens the extraction result next to the success flag.
type extractResponse struct {
	Success bool `json:"success"`
	*types.PageExtractionResult
}

func (c *Config) extract(ctx *gin.Context) {
	result, err := c.registry.Resolve(ctx.Request.Context(), ctx.Query("url"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	utils.DebugLog("[%s] extracted %s via %s", ctx.GetString(requestIDKey), utils.MaskURL(result.StreamURL), result.Source)
	ctx.JSON(http.StatusOK, extractResponse{Success: true, PageExtractionResult: result})
}

func (c *Config) listHistory(ctx *gin.Context) {
	records, err := c.history.List()
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, records)
}

func (c *Config) upsertHistory(ctx *gin.Context) {
	u, err := readUpdate(ctx)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	rec, kept, err := c.history.Upsert(u)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	resp := types.APIResponse{Success: true, Data: rec}
	if !kept {
		resp.Message = "record saved but evicted: older than every retained entry"
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *Config) deleteHistory(ctx *gin.Context) {
	u, err := readUpdate(ctx)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	removed, err := c.history.Delete(u)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, types.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"removed": removed},
	})
}

func (c *Config) status(ctx *gin.Context) {
	records, err := c.history.List()
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, types.APIResponse{
		Success: true,
		Message: "stream-relay is running",
		Data: map[string]interface{}{
			"sources":       c.registry.Names(),
			"history_size":  len(records),
			"history_limit": c.HistoryLimit,
			"uptime":        time.Since(c.startedAt).Truncate(time.Second).String(),
		},
	})
}

func readUpdate(ctx *gin.Context) (types.HistoryUpdate, error) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxHistoryBody))
	if err != nil {
		return types.HistoryUpdate{}, types.NewInputError("cannot read request body")
	}
	return history.DecodeUpdate(body)
}

// writeError maps err onto its status and a {error} body. Server-side
// failures are logged with their location.
func (c *Config) writeError(ctx *gin.Context, err error) {
	code := types.StatusCode(err)
	if code >= http.StatusInternalServerError {
		utils.ErrorLog("[%s] %s %s: %v", ctx.GetString(requestIDKey), ctx.Request.Method, ctx.Request.URL.Path, utils.ErrorWithLocation(err))
	} else {
		utils.DebugLog("[%s] %s %s: %v", ctx.GetString(requestIDKey), ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	ctx.AbortWithStatusJSON(code, types.APIResponse{Error: err.Error()})
}
