package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"document-quiz/internal/app"
	"document-quiz/internal/models"
)

// WSHandler serves the QA chat of one session over a websocket.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
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

type askPayload struct {
	Question string `json:"question"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type historyPayload struct {
	History []models.Turn `json:"history"`
}

// ServeWS upgrades the request and answers "ask" and "history" messages
// until the client goes away. Questions are handled one at a time.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	if _, err := h.service.Session(sessionID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("session", sessionID).Msg("ws write error")
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "ready", Payload: map[string]string{"session": sessionID}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ask":
			var payload askPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid ask payload", http.StatusBadRequest)
				continue
			}
			answer, err := h.service.Ask(r.Context(), sessionID, payload.Question)
			if err != nil {
				send <- errorMessage(err.Error(), statusFor(err))
				continue
			}
			send <- outboundMessage[any]{Type: "answer", Payload: answer}
		case "history":
			history, err := h.service.History(sessionID)
			if err != nil {
				send <- errorMessage(err.Error(), statusFor(err))
				continue
			}
			if history == nil {
				history = []models.Turn{}
			}
			send <- outboundMessage[any]{Type: "history", Payload: historyPayload{History: history}}
		default:
			send <- errorMessage("unsupported message type", http.StatusBadRequest)
		}
	}

	close(send)
	<-writerDone
}

func errorMessage(msg string, status int) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg, Status: status}}
}
