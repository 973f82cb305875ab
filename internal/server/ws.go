package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kkfinancial/loan-consult/internal/calculator"
	"github.com/kkfinancial/loan-consult/pkg/emi"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
)

// handleLiveCalculator upgrades to a websocket and runs one calculator
// session for the connection. Each text message is a calculator.Update; every
// applied update is answered with the resulting snapshot. When updates arrive
// faster than snapshots can be written, only the newest snapshot is sent.
func (h *handler) handleLiveCalculator(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("op", "server.handleLiveCalculator"),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	initial := calculator.DefaultInputs()
	q := r.URL.Query()
	if v := q.Get("principal"); v != "" {
		initial.Principal = v
	}
	if v := q.Get("rate"); v != "" {
		initial.Rate = v
	}
	if v := q.Get("tenure"); v != "" {
		initial.Tenure = v
	}
	if v := q.Get("unit"); v != "" {
		initial.Unit = emi.ParseTenureUnit(v)
	}

	session := calculator.NewSession(initial, h.grouping)

	// Single slot: a pending snapshot is replaced by a newer one.
	latest := make(chan calculator.Snapshot, 1)
	offer := func(s calculator.Snapshot) {
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- s:
		default:
		}
	}
	unsubscribe := session.Subscribe(offer)
	defer unsubscribe()
	offer(session.Snapshot())

	done := make(chan struct{})
	go h.writeSnapshots(conn, latest, done)
	defer close(done)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Debug("live calculator closed",
					zap.String("op", "server.handleLiveCalculator"),
					zap.Error(err),
				)
			}
			return
		}

		var u calculator.Update
		if err := json.Unmarshal(msg, &u); err != nil {
			h.logger.Debug("ignoring malformed calculator update",
				zap.String("op", "server.handleLiveCalculator"),
				zap.Error(err),
			)
			continue
		}
		session.Apply(u)
	}
}

func (h *handler) writeSnapshots(conn *websocket.Conn, latest <-chan calculator.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case snap := <-latest:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				h.logger.Debug("failed to write calculator snapshot",
					zap.String("op", "server.writeSnapshots"),
					zap.Error(err),
				)
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
