package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-intercom-bridge/events"
	"github.com/rs/zerolog/log"
)

const (
	pongWait        = 60 * time.Second
	writeWait       = 10 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	subscriberQueue = 16
)

type clientMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type  string            `json:"type"`
	Event string            `json:"event,omitempty"`
	Body  *events.DoorEvent `json:"body,omitempty"`
}

// Events streams door events to a websocket client. Clients may send
// {"type":"ping"} and get {"type":"pong"}; everything else is ignored.
func (s *Server) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer ws.Close()

		sub := s.bus.Subscribe(subscriberQueue)
		defer s.bus.Unsubscribe(sub)
		log.Info().Str("remote", r.RemoteAddr).Msg("event stream connected")

		ws.SetReadLimit(4096)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})

		// The reader owns no writes; pings it sees are answered by the
		// write loop below, which is the connection's only writer.
		pings := make(chan struct{}, 1)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				var msg clientMessage
				if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
					select {
					case pings <- struct{}{}:
					default:
					}
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				log.Info().Str("remote", r.RemoteAddr).Msg("event stream disconnected")
				return
			case <-r.Context().Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeWS(ws, serverMessage{Type: "update", Event: ev.Event, Body: &ev}); err != nil {
					log.Debug().Err(err).Msg("event stream write failed")
					return
				}
			case <-pings:
				if err := writeWS(ws, serverMessage{Type: "pong"}); err != nil {
					return
				}
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}

func writeWS(ws *websocket.Conn, msg serverMessage) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(msg)
}
