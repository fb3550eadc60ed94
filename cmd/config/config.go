package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/handsoff-go/internal/conf"
)

// Command returns a cobra command that shows the effective configuration
func Command(settings *conf.Settings) *cobra.Command {
	var writeDefault bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file, .env and
HANDSOFF_* environment variables. With --write-default, create the default config
file if none exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeDefault {
				path, err := conf.WriteDefaultConfig()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", path)
			}

			data, err := conf.MarshalYAML(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&writeDefault, "write-default", false, "Write the default config file if it does not exist")

	return cmd
}
