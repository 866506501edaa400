package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
)

// Peer negotiation payloads pass through verbatim. The server checks
// only that sender and target share a session and which of the three
// signaling kinds is claimed; SDP and candidate contents stay opaque.

var relayKinds = map[string]bool{
	"offer":     true,
	"answer":    true,
	"candidate": true,
}

func (ctl *Controller) handleRelay(id core.ClientID, data []byte) {
	type relayPayload struct {
		Type    string          `json:"type"`
		To      string          `json:"to"`
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		return
	}
	if !relayKinds[p.Kind] {
		log.Warn().Str("module", "signal").Str("kind", p.Kind).Msg("unknown signal kind")
		return
	}

	out := struct {
		Type    string          `json:"type"`
		From    core.ClientID   `json:"from"`
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}{"signal", id, p.Kind, p.Payload}
	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("signal marshal")
		return
	}

	// undelivered relays are dropped, the peer layer owns its retries
	ctl.Gateway.Relay(id, core.ClientID(p.To), b)
}

func (ctl *Controller) handleStreamStart(id core.ClientID) {
	sess, _, err := ctl.Gateway.Membership(id)
	if err != nil {
		return
	}
	ctl.broadcastOthers(sess, id, struct {
		Type   string        `json:"type"`
		HostID core.ClientID `json:"host_id"`
	}{"stream_started", id})
}

func (ctl *Controller) handleStreamStop(id core.ClientID) {
	sess, _, err := ctl.Gateway.Membership(id)
	if err != nil {
		return
	}
	ctl.broadcastOthers(sess, id, struct {
		Type string `json:"type"`
	}{"stream_stopped"})
}
