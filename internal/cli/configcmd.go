package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration in effect after applying --config or the
discovered mpilower.toml over the defaults.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.settings()
			formatter := rootOpts.formatter(cmd)

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{
					"path":    rootOpts.cfgPath,
					"context": cfg.Context().Options(),
					"render":  map[string]string{"call_prefix_case": cfg.Render.CallPrefixCase},
					"store":   map[string]string{"path": cfg.Store.Path},
				})
			}

			data, err := cfg.Encode()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode config", err)
			}
			if rootOpts.cfgPath != "" {
				fmt.Fprintf(formatter.Writer, "# %s\n", rootOpts.cfgPath)
			}
			fmt.Fprint(formatter.Writer, string(data))
			return nil
		},
	}
}
