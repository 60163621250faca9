package main

import (
	"time"

	"github.com/spf13/cobra"
)

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// ProcessFlags holds the per-process selection flags plus the optional
// remote daemon connection.
type ProcessFlags struct {
	Name       string
	APIUrl     string
	APITimeout time.Duration
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen string
}

func addProcessFlags(cmd *cobra.Command, flags *ProcessFlags) {
	cmd.Flags().StringVar(&flags.Name, "name", "", "process name")
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}
