// internal/httpserver/ws.go
//
// WebSocket event stream for one game: GET /game/{id}/ws.
//   - Server → client: session events {"type":"state"|"status"|"tick", ...}.
//   - Client → server: {"type":"select","position":n}, {"type":"start"}, {"type":"reset"}.
//
// writePump is the only writer on a connection; readPump owns reads and pongs.
// The stream ends with a close frame when the session is deleted or evicted.

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// wsCommand is an incoming player intent.
type wsCommand struct {
	Type     string `json:"type"` // "select" | "start" | "reset"
	Position *int   `json:"position,omitempty"`
}

// checkOrigin accepts same-host dials, the configured client origin, and
// non-browser clients that send no Origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.opts.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// handleWS streams session events and accepts commands on the same socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	logger := hlog.FromRequest(r).With().Logger()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	events, cancel := sess.Subscribe()
	logger.Debug().Msg("websocket connected")

	go writePump(conn, events, logger)
	readPump(conn, sess, logger)
	cancel()
	logger.Debug().Msg("websocket disconnected")
}

// readPump applies commands until the peer goes away.
func readPump(conn *websocket.Conn, sess *session.Session, logger zerolog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			logger.Debug().Err(err).Msg("bad websocket command")
			continue
		}
		switch cmd.Type {
		case "select":
			if cmd.Position != nil {
				sess.Select(*cmd.Position)
			}
		case "start":
			sess.Start()
		case "reset":
			sess.Reset()
		default:
			logger.Debug().Str("type", cmd.Type).Msg("unknown websocket command")
		}
	}
}

// writePump is the only writer on conn. It exits when events is closed.
func writePump(conn *websocket.Conn, events <-chan session.Event, logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug().Err(err).Msg("websocket write")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
