package model

// ChunkTranscription is the result of transcribing one segment.
type ChunkTranscription struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Words               []Word  `json:"words"`
}

// SpeakerTurn is a maximal run of consecutive words from one speaker.
type SpeakerTurn struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
}
