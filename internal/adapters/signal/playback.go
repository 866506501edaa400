package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

// Playback mutations share one shape of failure: rejected requests
// (unknown session, locked controls, invalid transition) change nothing
// and broadcast nothing. Only the happy path is observable.

type playEvent struct {
	Type       string        `json:"type"`
	Position   float64       `json:"position"`
	Track      *domain.Track `json:"track,omitempty"`
	ServerTime int64         `json:"server_time"`
}

type positionEvent struct {
	Type       string  `json:"type"`
	Position   float64 `json:"position"`
	ServerTime int64   `json:"server_time"`
}

func (ctl *Controller) handlePlay(id core.ClientID, data []byte) {
	type playPayload struct {
		Type     string        `json:"type"`
		Position float64       `json:"position"`
		Track    *domain.Track `json:"track,omitempty"`
	}
	var p playPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad play payload")
		return
	}
	sess, err := ctl.Gateway.Play(id, p.Position, p.Track)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("play rejected")
		return
	}
	snap := sess.Snapshot()
	ctl.broadcastOthers(sess, id, playEvent{
		Type:       "play",
		Position:   p.Position,
		Track:      snap.Track,
		ServerTime: serverTime(),
	})
}

func (ctl *Controller) handlePause(id core.ClientID, data []byte) {
	type pausePayload struct {
		Type     string  `json:"type"`
		Position float64 `json:"position"`
	}
	var p pausePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad pause payload")
		return
	}
	sess, err := ctl.Gateway.Pause(id, p.Position)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("pause rejected")
		return
	}
	ctl.broadcastOthers(sess, id, positionEvent{
		Type:       "pause",
		Position:   p.Position,
		ServerTime: serverTime(),
	})
}

func (ctl *Controller) handleSeek(id core.ClientID, data []byte) {
	type seekPayload struct {
		Type     string  `json:"type"`
		Position float64 `json:"position"`
	}
	var p seekPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad seek payload")
		return
	}
	sess, err := ctl.Gateway.Seek(id, p.Position)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("seek rejected")
		return
	}
	ctl.broadcastOthers(sess, id, positionEvent{
		Type:       "seek",
		Position:   p.Position,
		ServerTime: serverTime(),
	})
}

func (ctl *Controller) handleVolume(id core.ClientID, data []byte) {
	type volumePayload struct {
		Type   string  `json:"type"`
		Volume float64 `json:"volume"`
	}
	var p volumePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad volume payload")
		return
	}
	sess, err := ctl.Gateway.SetVolume(id, p.Volume)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("volume rejected")
		return
	}
	ctl.broadcastOthers(sess, id, struct {
		Type   string  `json:"type"`
		Volume float64 `json:"volume"`
	}{"volume", p.Volume})
}

func (ctl *Controller) handleTrack(id core.ClientID, data []byte) {
	type trackPayload struct {
		Type  string        `json:"type"`
		Track *domain.Track `json:"track"`
	}
	var p trackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad track payload")
		return
	}
	sess, err := ctl.Gateway.LoadTrack(id, p.Track)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("track rejected")
		return
	}
	ctl.broadcastOthers(sess, id, playEvent{
		Type:       "track",
		Position:   0,
		Track:      p.Track,
		ServerTime: serverTime(),
	})
}

func (ctl *Controller) handleLock(id core.ClientID) {
	sess, locked, err := ctl.Gateway.ToggleControls(id)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("client", string(id)).Msg("lock rejected")
		return
	}
	ctl.broadcastAll(sess, struct {
		Type   string `json:"type"`
		Locked bool   `json:"locked"`
	}{"controls", locked})
}
