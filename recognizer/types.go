package recognizer

// Event is one transcript event emitted by the recognizer.
type Event struct {
	// SpeakerTag is the diarized speaker (1 or 2), or nil when the
	// recognizer could not attribute the line.
	SpeakerTag *int `json:"speaker_tag,omitempty"`
	// Text is the recognized text.
	Text string `json:"text"`
	// LanguageCode is the BCP-47 language of the recognition.
	LanguageCode string `json:"language_code,omitempty"`
	// TimestampMs is the event offset from stream start in milliseconds.
	TimestampMs int64 `json:"timestamp_ms"`
	// IsFinal marks a stable result; interim results may be revised.
	IsFinal bool `json:"is_final"`
}

// StreamRequest holds parameters for opening a recognition stream.
type StreamRequest struct {
	// ConversationID identifies the conversation being recorded.
	ConversationID string `json:"conversation_id"`
	// SampleRate is the PCM sample rate in Hz.
	SampleRate int `json:"sample_rate,omitempty"`
	// LanguageCode is the expected language of the audio (e.g. "en-US").
	LanguageCode string `json:"language_code,omitempty"`
}
