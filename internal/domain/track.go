package domain

// Track describes the audio source a session is playing. SourceRef is
// opaque to the server: a URL, a blob handle, or empty for a live
// capture relayed over a peer connection.
type Track struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SourceRef    string  `json:"source_ref,omitempty"`
	Duration     float64 `json:"duration"`
	IsLiveStream bool    `json:"is_live_stream"`
}
