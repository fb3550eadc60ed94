package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/tphakala/handsoff-go/cmd/config"
	"github.com/tphakala/handsoff-go/cmd/notify"
	"github.com/tphakala/handsoff-go/cmd/playsound"
	"github.com/tphakala/handsoff-go/cmd/realtime"
	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "handsoff",
		Short:        "Hands-off face touch detector",
		Long:         "Learns what touching your face looks like from your camera and alerts you when you do it.",
		SilenceUsage: true,
		Version:      settings.Version,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		// Only fails when flag names collide, which is a programming error
		panic(err)
	}

	rootCmd.AddCommand(
		realtime.Command(settings),
		notify.Command(settings),
		playsound.Command(settings),
		configcmd.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Global().Close()
	}

	return rootCmd
}

// initialize replaces the fallback logger with one built from the logging settings
func initialize(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	logger.SetGlobal(cl)

	logger.Global().Module("main").Debug("configuration loaded",
		logger.String("version", settings.Version),
		logger.String("config_file", viper.ConfigFileUsed()))
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	// --config is read by ConfigFileFromArgs before the settings are loaded
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: search ./ and ~/.config/handsoff)")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

// ConfigFileFromArgs returns the value of --config in args, ignoring every other flag.
// Settings are loaded before the command tree exists, so this flag is read early.
func ConfigFileFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
