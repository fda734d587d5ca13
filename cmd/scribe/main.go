package main

import (
	"fmt"
	"os"

	"scribe-transcriber/cmd/scribe/cmd"
	"scribe-transcriber/internal/config"

	// Import providers to register them
	_ "scribe-transcriber/internal/app/api/elevenlabs"
	_ "scribe-transcriber/internal/app/api/openai/whisper"
)

func main() {
	// Variables already set in the environment win over the .env file.
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cmd.Execute()
}
