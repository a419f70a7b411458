package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statgen/locuszoom-sub005/errors"
)

const (
	// maxStreamMessage bounds one inbound query.
	maxStreamMessage = 64 * 1024
	// streamIdleTimeout closes connections that send nothing.
	streamIdleTimeout = 2 * time.Minute
	streamWriteWait   = 10 * time.Second
)

// StreamRequest is one query sent over the stream route. ID is echoed back so
// clients can match replies when they pan faster than data arrives.
type StreamRequest struct {
	ID string `json:"id,omitempty"`
	Query
}

// StreamReply carries either a Response or an ErrorResponse for one request.
type StreamReply struct {
	ID string `json:"id,omitempty"`
	*Response
	*ErrorResponse
}

// handleStream upgrades to a websocket and answers queries in arrival order
// until the client closes the connection or goes idle.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	requestID := getOrGenerateRequestID(r)
	logger := g.logger.With("request_id", requestID, "transport", "websocket")

	conn, err := g.upgrader.Upgrade(w, r, http.Header{"X-Request-ID": {requestID}})
	if err != nil {
		logger.Info("Rejected stream upgrade", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxStreamMessage)
	logger.Debug("Stream opened")

	for {
		_ = conn.SetReadDeadline(time.Now().Add(streamIdleTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("Stream closed", "error", err)
			}
			return
		}

		reply := g.answer(r, logger, data)
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Info("Stream write failed", "error", err)
			return
		}
	}
}

func (g *Gateway) answer(r *http.Request, logger *slog.Logger, data []byte) StreamReply {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Info("Rejected stream request", "error", err)
		return g.streamError("", http.StatusBadRequest, errors.ErrorInvalid)
	}

	state, tokens, err := g.resolve(req.Query)
	if err != nil {
		logger.Info("Rejected stream request", "id", req.ID, "error", err)
		return g.streamError(req.ID, http.StatusBadRequest, errors.ErrorInvalid)
	}

	resp, status, class := g.execute(r.Context(), logger.With("stream_id", req.ID), state, tokens)
	if resp == nil {
		return g.streamError(req.ID, status, class)
	}
	g.record(status)
	return StreamReply{ID: req.ID, Response: resp}
}

func (g *Gateway) streamError(id string, status int, class errors.ErrorClass) StreamReply {
	g.record(status)
	return StreamReply{ID: id, ErrorResponse: &ErrorResponse{Error: errorMessage, Class: class.String()}}
}

// allowedOrigin accepts upgrades from the configured CORS origins.
func (g *Gateway) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
