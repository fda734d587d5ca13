package testutil

import (
	"strings"

	"scribe-transcriber/internal/app/model"
)

// SpokenWord builds a word attributed to speaker. An empty speaker leaves the
// speaker id unset.
func SpokenWord(text, speaker string, start float64) model.Word {
	w := model.Word{
		Text:  text,
		Start: start,
		End:   start + 0.5,
		Type:  model.WordTypeWord,
	}
	if speaker != "" {
		w.SpeakerID = &speaker
	}
	return w
}

// Spacing builds a spacing token for speaker.
func Spacing(speaker string, start float64) model.Word {
	w := SpokenWord(" ", speaker, start)
	w.Type = model.WordTypeSpacing
	return w
}

// AudioEvent builds an audio event tag such as "(laughter)".
func AudioEvent(text string, start float64) model.Word {
	w := SpokenWord(text, "", start)
	w.Type = model.WordTypeAudioEvent
	return w
}

// Chunk builds a chunk result whose text is the concatenation of its words.
func Chunk(words ...model.Word) *model.ChunkTranscription {
	var text strings.Builder
	for _, w := range words {
		text.WriteString(w.Text)
	}
	return &model.ChunkTranscription{
		Text:                text.String(),
		LanguageCode:        "jpn",
		LanguageProbability: 0.98,
		Words:               words,
	}
}
