package model

// UnknownSpeaker labels words the service returned without a speaker id.
const UnknownSpeaker = "unknown_speaker"

// WordType is the token kind reported by the speech-to-text service.
type WordType string

const (
	WordTypeWord       WordType = "word"
	WordTypeSpacing    WordType = "spacing"
	WordTypeAudioEvent WordType = "audio_event"
)

// Word is a single timed token. Spacing between words arrives as its own
// token, so concatenating Text values reproduces the transcript verbatim.
type Word struct {
	Text      string   `json:"text"`
	Start     float64  `json:"start"`
	End       float64  `json:"end"`
	Type      WordType `json:"type"`
	SpeakerID *string  `json:"speaker_id,omitempty"`
}

// Speaker returns the speaker id, or UnknownSpeaker when none was attributed.
func (w Word) Speaker() string {
	if w.SpeakerID == nil {
		return UnknownSpeaker
	}
	return *w.SpeakerID
}
