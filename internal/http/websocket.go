package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"field-service/internal/capture"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamFrame is what the server sends: either a session snapshot after a
// change or the outcome of a rejected position frame.
type streamFrame struct {
	Type     string            `json:"type"`
	Snapshot *capture.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// streamPositions upgrades to a websocket. Incoming frames are positions in
// the same shape as POST /positions; outgoing frames mirror the session.
func (h *Handler) streamPositions(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	snapshots, release := session.Watch()
	defer release()

	replies := make(chan streamFrame, 8)
	done := make(chan struct{})
	go h.writePump(conn, session, snapshots, replies, done)

	h.readPump(conn, session, replies)
	close(done)
}

func (h *Handler) readPump(conn *websocket.Conn, session *capture.Session, replies chan<- streamFrame) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	reply := func(err error) {
		select {
		case replies <- streamFrame{Type: "error", Error: err.Error()}:
		default:
		}
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("websocket closed")
			}
			return
		}
		session.Touch(time.Now())

		// битый кадр не закрывает поток
		var req positionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			reply(err)
			continue
		}
		if _, err := req.apply(session.Stream); err != nil {
			reply(err)
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, session *capture.Session, snapshots <-chan capture.Snapshot, replies <-chan streamFrame, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	initial := session.Controller.Snapshot()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(streamFrame{Type: "snapshot", Snapshot: &initial}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case snap := <-snapshots:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(streamFrame{Type: "snapshot", Snapshot: &snap}); err != nil {
				return
			}
		case reply := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
