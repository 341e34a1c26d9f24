package http

import (
	"encoding/json"
	"net/http"

	"trivia-events-service/internal/app"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler streams live vote stats of a vote node and accepts votes over the same socket.
type WSHandler struct {
	service  *app.EventService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.EventService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeLiveVotes upgrades the request once the node is known to be a vote node, then
// pushes a "stats" message for the current tally and after every vote on the node.
func (h *WSHandler) ServeLiveVotes(w http.ResponseWriter, r *http.Request) {
	index, ok := nodeIndex(w, r)
	if !ok {
		return
	}
	userID := userFrom(r.Context())

	updates, cancel, err := h.service.SubscribeVotes(r.Context(), index)
	if err != nil {
		fail(h.logger, w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case stats, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "stats", Payload: stats}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// reply gives up once the writer has stopped.
	reply := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var msg outboundMessage[any]
		switch inbound.Type {
		case "vote":
			var payload voteRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				msg = outboundMessage[any]{Type: "error", Payload: errorBody{Message: "invalid vote payload"}}
				break
			}
			result, err := h.service.SubmitVote(r.Context(), userID, index, payload.OptionID)
			if err != nil {
				msg = outboundMessage[any]{Type: "error", Payload: errorBody{Message: rootMessage(err)}}
				break
			}
			msg = outboundMessage[any]{Type: "voteResult", Payload: result}
		default:
			msg = outboundMessage[any]{Type: "error", Payload: errorBody{Message: "unsupported message type"}}
		}
		if !reply(msg) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
