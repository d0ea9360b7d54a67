package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/scraper-sky/2d-scene-editor/internal/core/bridge"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/prompt"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, bridge.ErrorResponse{Error: "not found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API server alive"))
}

func (s *Server) handlePushAI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, bridge.ErrorResponse{Error: msgMethod})
		return
	}

	var req bridge.EditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, bridge.ErrorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, bridge.ErrorResponse{Error: msgInvalidJSON})
		return
	}

	resp, status, msg := s.edit(r.Context(), req)
	if status != http.StatusOK {
		writeJSON(w, status, bridge.ErrorResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWebSocket serves edit requests over a WebSocket. Each text frame
// carries one edit request; each reply is an edit response or an error
// object. Requests on one connection are handled in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxBodySize)

	logger := s.logger.With(
		log.String("request_id", RequestID(r.Context())),
		log.String("remote_addr", r.RemoteAddr))
	logger.Debug("WebSocket client connected")

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read failed", log.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			if err = conn.WriteJSON(bridge.ErrorResponse{Error: "text frames only"}); err != nil {
				return
			}
			continue
		}

		var req bridge.EditRequest
		var reply any
		if err = json.Unmarshal(payload, &req); err != nil {
			reply = bridge.ErrorResponse{Error: msgInvalidJSON}
		} else if resp, status, msg := s.edit(r.Context(), req); status != http.StatusOK {
			reply = bridge.ErrorResponse{Error: msg}
		} else {
			reply = resp
		}

		if err = conn.WriteJSON(reply); err != nil {
			logger.Warn("WebSocket write failed", log.Error(err))
			return
		}
	}
}

// edit checks the request, builds the conversation and asks the generator.
// It returns the response, the HTTP status to report and, on failure, the
// client-facing message.
func (s *Server) edit(ctx context.Context, req bridge.EditRequest) (bridge.EditResponse, int, string) {
	logger := s.logger.With(log.String("request_id", RequestID(ctx)))

	scene := bytes.TrimSpace(req.SceneDefs)
	if len(scene) == 0 || scene[0] != '[' || strings.TrimSpace(req.Instruction) == "" {
		return bridge.EditResponse{}, http.StatusBadRequest, msgBadRequest
	}

	messages, err := prompt.Build(scene, req.Instruction)
	if err != nil {
		return bridge.EditResponse{}, http.StatusBadRequest, msgBadRequest
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	content, err := s.generator.Generate(ctx, messages)
	if err != nil {
		logger.Error("Provider request failed", log.Error(err))
		return bridge.EditResponse{}, http.StatusInternalServerError, msgProviderFailed
	}

	logger.Info("Edit generated",
		log.Int("scene_bytes", len(scene)),
		log.Int("response_chars", len(content)))
	return bridge.EditResponse{UpdatedJSON: content}, http.StatusOK, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
