package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"scribe-transcriber/internal/app/model"
)

// Format selects how chunk results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const separatorLine = "===== Speaker timeline ====="

// Header is the comment block written before any transcript content.
type Header struct {
	SourceFile     string
	CreatedAt      time.Time
	LanguageCode   string
	NumSpeakers    int
	Diarize        bool
	TagAudioEvents bool
}

// WriteHeader writes the four comment lines and the separator line.
func WriteHeader(w io.Writer, h Header) error {
	_, err := fmt.Fprintf(w,
		"# Transcription result\n"+
			"# Source file: %s\n"+
			"# Date: %s\n"+
			"# Settings: language=%s, speakers=%d, diarize=%t, audio_events=%t\n\n"+
			"\n%s\n\n",
		filepath.Base(h.SourceFile),
		h.CreatedAt.Format("2006-01-02 15:04:05"),
		h.LanguageCode,
		h.NumSpeakers,
		h.Diarize,
		h.TagAudioEvents,
		separatorLine,
	)
	return err
}

// Renderer consumes chunk results in index order.
type Renderer interface {
	Chunk(index int, chunk *model.ChunkTranscription) error
	Finish() error
}

// FormatTurn renders one turn as a transcript line without the newline.
func FormatTurn(turn model.SpeakerTurn) string {
	if turn.Speaker == "" {
		return turn.Text
	}
	return fmt.Sprintf("[%s] %s", turn.Speaker, turn.Text)
}

// TextRenderer writes merged speaker turns, one per line, to out and echoes
// them to console as they close.
type TextRenderer struct {
	out       io.Writer
	console   io.Writer
	assembler *Assembler
	turns     int
}

func NewTextRenderer(out, console io.Writer, diarize bool) *TextRenderer {
	r := &TextRenderer{out: out, console: console}
	r.assembler = NewAssembler(diarize, r)
	return r
}

func (r *TextRenderer) WriteTurn(turn model.SpeakerTurn) error {
	line := FormatTurn(turn) + "\n"
	if _, err := io.WriteString(r.out, line); err != nil {
		return err
	}
	if r.console != nil {
		if _, err := io.WriteString(r.console, line); err != nil {
			return err
		}
	}
	r.turns++
	return nil
}

func (r *TextRenderer) Chunk(index int, chunk *model.ChunkTranscription) error {
	return r.assembler.Feed(index, chunk)
}

func (r *TextRenderer) Finish() error {
	return r.assembler.Flush()
}

// Turns returns how many lines were written so far.
func (r *TextRenderer) Turns() int {
	return r.turns
}

// JSONRenderer writes every chunk result as its own indented JSON object.
// Objects are joined with ",\n" and, unless asArray is set, not enclosed in
// an array, so the file as a whole is not a single JSON document.
type JSONRenderer struct {
	out     io.Writer
	asArray bool
	written int
}

func NewJSONRenderer(out io.Writer, asArray bool) *JSONRenderer {
	return &JSONRenderer{out: out, asArray: asArray}
}

func (r *JSONRenderer) Chunk(index int, chunk *model.ChunkTranscription) error {
	body, err := marshalChunk(chunk)
	if err != nil {
		return fmt.Errorf("encode chunk %d: %w", index, err)
	}

	var prefix string
	switch {
	case r.written > 0:
		prefix = ",\n"
	case r.asArray:
		prefix = "[\n"
	}

	if _, err := io.WriteString(r.out, prefix); err != nil {
		return err
	}
	if _, err := r.out.Write(body); err != nil {
		return err
	}
	r.written++
	return nil
}

func (r *JSONRenderer) Finish() error {
	if !r.asArray {
		return nil
	}
	closing := "\n]\n"
	if r.written == 0 {
		closing = "[]\n"
	}
	_, err := io.WriteString(r.out, closing)
	return err
}

func marshalChunk(chunk *model.ChunkTranscription) ([]byte, error) {
	c := *chunk
	if c.Words == nil {
		c.Words = []model.Word{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// NewRenderer builds the renderer for format.
func NewRenderer(format Format, out, console io.Writer, diarize, jsonArray bool) (Renderer, error) {
	switch format {
	case FormatText, "":
		return NewTextRenderer(out, console, diarize), nil
	case FormatJSON:
		return NewJSONRenderer(out, jsonArray), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
