package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drives the connection. On exit the disconnect flow runs
// synchronously before the socket is released, so no session or
// presence entry survives its connection.
func (ctl *Controller) readPump(ctx context.Context, cid domain.ConnID, c *wsConn) {
	defer func() {
		ctl.Orch.Disconnect(ctx, cid)
		ctl.limiter.Forget(cid)
		c.Close()
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closed")
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleMessage(ctx, cid, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(ctx context.Context, cid domain.ConnID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		ctl.sendError(c, "bad-payload")
		return
	}

	switch env.Type {
	case "register":
		ctl.handleRegister(cid, c, data)
	case "call-start":
		ctl.handleCallStart(ctx, cid, c, data)
	case "call-answer":
		ctl.handleCallAnswer(ctx, cid, c, data)
	case "call-reject":
		ctl.handleCallReject(ctx, cid, c, data)
	case "call-end":
		ctl.handleCallEnd(ctx, cid, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, "unknown-type")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(core.Frame(b))
}

func (ctl *Controller) sendError(c *wsConn, reason string) {
	ctl.sendJSON(c, map[string]any{"type": "error", "reason": reason})
}
