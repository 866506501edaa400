package signal

import "encoding/json"

// handlePing echoes the client's timestamp back untouched. The client
// halves the observed round trip for its one-way latency estimate;
// nothing is recorded server-side.
func (ctl *Controller) handlePing(conn *wsConn, data []byte) {
	type pingPayload struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}
	var p pingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.sendJSON(conn, struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}{"pong", p.Timestamp})
}
