package providers

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/config"
)

// Cmd represents the providers command
var Cmd = &cobra.Command{
	Use:   "providers",
	Short: "List the available transcription providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.GetAPIKeys()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tDIARIZATION\tMODELS\tAPI KEY")

		for _, name := range provider.ListRegisteredProviders() {
			creator, err := provider.GetProviderCreator(name)
			if err != nil {
				return err
			}
			// a placeholder key is enough to read the provider's capabilities
			p, err := creator(provider.NewProviderConfig(nil, "placeholder"))
			if err != nil {
				return err
			}

			info := p.GetProviderInfo()
			keyState := "missing"
			if keys.For(name) != "" {
				keyState = "set"
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s (%s)\n",
				name,
				info.DisplayName,
				info.SupportsDiarization,
				strings.Join(info.AvailableModels, ", "),
				config.EnvFor(name),
				keyState)
		}
		return w.Flush()
	},
}
