package model

// ResponseMetadata records everything the gateway knows about one
// system's response within a battle: timing, retry count, size, and the
// probed audio characteristics. Ported field-for-field from
// music_arena/dataclass/arena.py's ResponseMetadata.
type ResponseMetadata struct {
	SystemKey            *SystemKey `json:"system_key,omitempty"`
	SystemGitHash         *string    `json:"system_git_hash,omitempty"`
	SystemTimeQueued      *float64   `json:"system_time_queued,omitempty"`
	SystemTimeStarted     *float64   `json:"system_time_started,omitempty"`
	SystemTimeCompleted   *float64   `json:"system_time_completed,omitempty"`
	GatewayTimeStarted    *float64   `json:"gateway_time_started,omitempty"`
	GatewayTimeCompleted  *float64   `json:"gateway_time_completed,omitempty"`
	GatewayNumRetries     *int       `json:"gateway_num_retries,omitempty"`
	SizeBytes             *int       `json:"size_bytes,omitempty"`
	Lyrics                *string    `json:"lyrics,omitempty"`
	SampleRate            *int       `json:"sample_rate,omitempty"`
	NumChannels           *int       `json:"num_channels,omitempty"`
	Duration              *float64   `json:"duration,omitempty"`
	Checksum              *string    `json:"checksum,omitempty"`
}

// Anonymize returns a copy retaining only Lyrics and Checksum, matching
// ResponseMetadata.anonymize exactly (every other field is dropped, not
// just the system key).
func (m ResponseMetadata) Anonymize() ResponseMetadata {
	return ResponseMetadata{
		Lyrics:   m.Lyrics,
		Checksum: m.Checksum,
	}
}
