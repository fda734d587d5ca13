package transcript

import (
	"fmt"

	"scribe-transcriber/internal/app/model"
)

// TurnSink receives each speaker turn as soon as it is complete.
type TurnSink interface {
	WriteTurn(turn model.SpeakerTurn) error
}

// TurnSinkFunc adapts a function to TurnSink.
type TurnSinkFunc func(turn model.SpeakerTurn) error

func (f TurnSinkFunc) WriteTurn(turn model.SpeakerTurn) error {
	return f(turn)
}

// runState is either idle (no word seen yet) or inRun.
type runState interface {
	isRunState()
}

type idle struct{}

type inRun struct {
	turn model.SpeakerTurn
}

func (idle) isRunState()  {}
func (inRun) isRunState() {}

// step folds one word into the state. It returns the turn closed by this word,
// if any.
func step(state runState, w model.Word) (runState, *model.SpeakerTurn) {
	speaker := w.Speaker()
	fresh := inRun{turn: model.SpeakerTurn{Speaker: speaker, Text: w.Text, Start: w.Start}}

	switch s := state.(type) {
	case inRun:
		if s.turn.Speaker == speaker {
			s.turn.Text += w.Text
			return s, nil
		}
		closed := s.turn
		return fresh, &closed
	default:
		return fresh, nil
	}
}

// Assembler merges the word stream of consecutive chunks into speaker turns.
// A turn may span a chunk boundary; chunks must be fed in ascending index order.
type Assembler struct {
	diarize   bool
	sink      TurnSink
	state     runState
	lastChunk int
}

func NewAssembler(diarize bool, sink TurnSink) *Assembler {
	return &Assembler{
		diarize:   diarize,
		sink:      sink,
		state:     idle{},
		lastChunk: -1,
	}
}

// Feed consumes one chunk. Without diarization the chunk's raw text is emitted
// as a single speaker-less turn, or nothing when the chunk has no text.
func (a *Assembler) Feed(chunkIndex int, chunk *model.ChunkTranscription) error {
	if chunkIndex <= a.lastChunk {
		return fmt.Errorf("chunk %d fed after chunk %d", chunkIndex, a.lastChunk)
	}
	a.lastChunk = chunkIndex

	if !a.diarize {
		if chunk.Text == "" {
			return nil
		}
		turn := model.SpeakerTurn{Text: chunk.Text}
		if len(chunk.Words) > 0 {
			turn.Start = chunk.Words[0].Start
		}
		return a.sink.WriteTurn(turn)
	}

	for _, w := range chunk.Words {
		next, closed := step(a.state, w)
		a.state = next
		if closed != nil {
			if err := a.sink.WriteTurn(*closed); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush emits the turn still in progress, if it has any text.
func (a *Assembler) Flush() error {
	s, ok := a.state.(inRun)
	a.state = idle{}
	if !ok || s.turn.Text == "" {
		return nil
	}
	return a.sink.WriteTurn(s.turn)
}

// Assemble runs the whole chunk list through an Assembler and returns the
// resulting turns.
func Assemble(chunks []model.ChunkTranscription, diarize bool) []model.SpeakerTurn {
	var turns []model.SpeakerTurn
	a := NewAssembler(diarize, TurnSinkFunc(func(turn model.SpeakerTurn) error {
		turns = append(turns, turn)
		return nil
	}))
	for i := range chunks {
		// indexes are ascending and the sink never fails
		_ = a.Feed(i, &chunks[i])
	}
	_ = a.Flush()
	return turns
}
