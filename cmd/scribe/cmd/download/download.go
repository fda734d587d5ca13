package download

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe-transcriber/internal/app/logging"
	"scribe-transcriber/internal/downloader"
)

var outputDir string

func init() {
	Cmd.Flags().StringVarP(&outputDir, "dir", "d", "downloads", "directory the media is saved to")
}

// Cmd represents the download command
var Cmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download the media behind a URL without transcribing it",
	Long: `Download the media behind a URL without transcribing it.

- YouTube links are fetched with yt-dlp as mp3
- Direct links to audio or video files are downloaded as-is
- Other pages are searched for an og:audio or og:video link`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger, err := logging.NewLogger(verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		d := downloader.New(downloader.WithLogger(logger))
		path, err := d.Resolve(cmd.Context(), args[0], outputDir)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
