// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianInsight/services/router/engine"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The router sits behind the gateway, which enforces origins.
		return true
	},
}

// wsEnvelope wraps every message sent over a routing session.
type wsEnvelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleRouteWebSocket keeps a routing session open so interactive
// clients can route many queries without re-handshaking per request.
// Each query streams its pipeline phases (complexity, profile,
// strategy, optimized) before the final decision frame.
func HandleRouteWebSocket(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		defer conn.Close()

		sessionID := uuid.NewString()
		if err := conn.WriteJSON(wsEnvelope{Type: "session_created", SessionID: sessionID}); err != nil {
			slog.Error("failed to send session handshake",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			return
		}
		slog.Info("routing session opened", slog.String("session_id", sessionID))

		for {
			var req engine.Request
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Warn("routing session closed unexpectedly",
						slog.String("session_id", sessionID),
						slog.String("error", err.Error()),
					)
				}
				return
			}

			if req.Query == "" || req.UserID == "" {
				if err := conn.WriteJSON(wsEnvelope{
					Type:      "error",
					SessionID: sessionID,
					Error:     "query and user_id are required",
				}); err != nil {
					return
				}
				continue
			}

			decision := eng.RouteQueryStream(c.Request.Context(), req, func(phase string, payload any) {
				if phase == "final" {
					return
				}
				// Writes stay on this goroutine; the emitter is
				// called synchronously from the pipeline.
				_ = conn.WriteJSON(wsEnvelope{
					Type:      "phase",
					SessionID: sessionID,
					Phase:     phase,
					Payload:   payload,
				})
			})
			if err := conn.WriteJSON(wsEnvelope{
				Type:      "routing_decision",
				SessionID: sessionID,
				Payload:   decision,
			}); err != nil {
				slog.Error("failed to send routing decision",
					slog.String("session_id", sessionID),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}
