package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	keepalive := time.NewTicker(ctl.pingPeriod)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			// closing the socket unblocks the read pump, which runs
			// the disconnect cleanup
			_ = c.conn.Close()
			return
		case <-keepalive.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeWait)); err != nil {
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

func (ctl *Controller) readPump(ctx context.Context, id core.ClientID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", string(id)).Msg("readPump closing")
		ctl.disconnect(id, c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Msg("readPump unexpected close")
				}
				return
			}
			ctl.handleMessage(id, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(id core.ClientID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(id, c, data)
	case "leave":
		ctl.handleLeave(id, c)
	case "play":
		ctl.handlePlay(id, data)
	case "pause":
		ctl.handlePause(id, data)
	case "seek":
		ctl.handleSeek(id, data)
	case "volume":
		ctl.handleVolume(id, data)
	case "track":
		ctl.handleTrack(id, data)
	case "lock":
		ctl.handleLock(id)
	case "ping":
		ctl.handlePing(c, data)
	case "signal":
		ctl.handleRelay(id, data)
	case "stream_start":
		ctl.handleStreamStart(id)
	case "stream_stop":
		ctl.handleStreamStop(id)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}

// broadcastOthers fans v out to every session member but the
// originator, who already applied the change locally.
func (ctl *Controller) broadcastOthers(sess core.SessionService, from core.ClientID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	res := sess.Broadcast(from, b)
	ctl.Gateway.HandleDropped(sess, res.Dropped)
}

func (ctl *Controller) broadcastAll(sess core.SessionService, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	res := sess.BroadcastAll(b)
	ctl.Gateway.HandleDropped(sess, res.Dropped)
}

// serverTime stamps outbound state events in Unix milliseconds; clients
// project positions forward from it.
func serverTime() int64 {
	return time.Now().UnixMilli()
}
