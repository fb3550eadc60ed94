package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/handsoff-go/cmd"
	"github.com/tphakala/handsoff-go/internal/buildinfo"
	"github.com/tphakala/handsoff-go/internal/conf"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	if path := cmd.ConfigFileFromArgs(os.Args[1:]); path != "" {
		conf.SetConfigFile(path)
	}

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	bi := &buildinfo.Context{Version: version, BuildDate: buildDate}
	settings.Version = bi.GetVersion()

	// Interrupt ends the session gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.RootCommand(settings)
	rootCmd.Version = bi.String()
	err = rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
