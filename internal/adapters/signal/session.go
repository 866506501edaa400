package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/app"
	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

type syncEvent struct {
	Type           string        `json:"type"`
	Track          *domain.Track `json:"track"`
	IsPlaying      bool          `json:"is_playing"`
	Position       float64       `json:"position"`
	Volume         float64       `json:"volume"`
	ControlsLocked bool          `json:"controls_locked"`
	ServerTime     int64         `json:"server_time"`
}

type membersEvent struct {
	Type    string           `json:"type"`
	Members []core.MemberDTO `json:"members"`
	Count   int              `json:"count"`
}

func (ctl *Controller) handleJoin(id core.ClientID, conn *wsConn, data []byte) {
	type joinPayload struct {
		Type       string `json:"type"`
		Session    string `json:"session"`
		AsHost     bool   `json:"as_host"`
		HostSecret string `json:"host_secret,omitempty"`
		Name       string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if !ctl.joinLimiter.Allow(id) {
		ctl.sendError(conn, "too many join attempts")
		return
	}

	res, err := ctl.Gateway.Join(id, domain.SessionID(p.Session), p.AsHost, p.HostSecret, p.Name, conn)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			ctl.sendError(conn, "session not found")
		case errors.Is(err, app.ErrBadHostSecret):
			ctl.sendError(conn, "invalid host credentials")
		case errors.Is(err, app.ErrHostTaken):
			ctl.sendError(conn, "session already has a host")
		default:
			ctl.sendError(conn, "join failed")
		}
		return
	}

	log.Info().Str("module", "signal").Str("client", string(id)).Str("session", p.Session).Bool("host", res.IsHost).Msg("joined")

	snap := res.Snapshot
	ctl.sendJSON(conn, syncEvent{
		Type:           "sync",
		Track:          snap.Track,
		IsPlaying:      snap.IsPlaying,
		Position:       snap.Position,
		Volume:         snap.Volume,
		ControlsLocked: snap.ControlsLocked,
		ServerTime:     serverTime(),
	})

	ctl.broadcastAll(res.Session, membersEvent{
		Type:    "members",
		Members: res.Session.MembersSnapshot(),
		Count:   res.Session.MemberCount(),
	})

	// the host starts a peer media offer towards every new listener
	if !res.IsHost {
		ctl.broadcastOthers(res.Session, id, struct {
			Type string        `json:"type"`
			ID   core.ClientID `json:"id"`
			Name string        `json:"name"`
		}{"peer_joined", id, res.Name})
	}
}

func (ctl *Controller) handleLeave(id core.ClientID, conn *wsConn) {
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("leave")
	sess, ok := ctl.Gateway.Leave(id)
	ctl.sendJSON(conn, map[string]any{"type": "left"})
	if ok && sess != nil {
		ctl.notifyDeparture(sess, id)
	}
}

// disconnect runs when the read pump exits for any reason. Cleanup is
// immediate and unconditional; a reconnect is a brand-new join.
func (ctl *Controller) disconnect(id core.ClientID, conn *wsConn) {
	sess, ok := ctl.Gateway.Leave(id)
	ctl.Gateway.Registry.Unbind(id)
	conn.Close()
	if ok && sess != nil {
		ctl.notifyDeparture(sess, id)
	}
}

func (ctl *Controller) notifyDeparture(sess core.SessionService, id core.ClientID) {
	ctl.broadcastOthers(sess, id, membersEvent{
		Type:    "members",
		Members: sess.MembersSnapshot(),
		Count:   sess.MemberCount(),
	})
	ctl.broadcastOthers(sess, id, struct {
		Type string        `json:"type"`
		ID   core.ClientID `json:"id"`
	}{"peer_left", id})
}
