// Package testutil provides shared fakes and fixtures for scribe-transcriber tests.
//
// It contains three components:
//
// 1. MockChunkTranscriber (mock_transcriber.go): a testify mock of
// provider.ChunkTranscriber that records every request and can be scripted
// per segment index.
//
// 2. FakeCodec (fake_codec.go): an audio.CommandRunner that answers ffprobe
// with a fixed duration and makes ffmpeg write empty segment files, so the
// pipeline runs without the real binaries.
//
// 3. Fixtures (fixtures.go): builders for words and chunk results.
//
// # Usage
//
//	transcriber := testutil.NewMockChunkTranscriber()
//	transcriber.OnSegment(0, testutil.Chunk(
//	    testutil.SpokenWord("hi", "speaker_0", 0),
//	))
//	transcriber.FailSegment(1, errors.New("boom"))
package testutil
