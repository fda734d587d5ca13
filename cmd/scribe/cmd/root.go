package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe-transcriber/cmd/scribe/cmd/download"
	"scribe-transcriber/cmd/scribe/cmd/providers"
	"scribe-transcriber/cmd/scribe/cmd/transcribe"
	"scribe-transcriber/cmd/scribe/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Transcribe long audio or video files into a speaker-labelled transcript",
	Long: `Transcribe long audio or video files into a speaker-labelled transcript.
- The input can be a local file, a YouTube link, a direct media URL or a web page with an audio player
- Long recordings are cut into fixed-length segments and sent to the speech-to-text service one by one
- Results are written to a text or JSON file as each segment finishes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(download.Cmd)
	rootCmd.AddCommand(providers.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
