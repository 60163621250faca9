package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	processFlags := &ProcessFlags{}
	serveFlags := &ServeFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStartCommand(globalFlags, processFlags),
		createStopCommand(globalFlags, processFlags),
		createRestartCommand(globalFlags, processFlags),
		createStatusCommand(globalFlags, processFlags),
		createCleanupCommand(globalFlags, processFlags),
		createServeCommand(globalFlags, serveFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "respawn",
		Short: "Single-host process supervisor",
		Long: `Respawn starts configured processes, restarts them when they crash,
and persists its state so a supervisor restart can pick up children that
kept running.

Examples:
  respawn serve --config=respawn.toml   # run the supervisor daemon
  respawn start --name=web              # start one configured process
  respawn status                        # show all managed processes
  respawn status --api-url=http://remote:8080/api`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "respawn.toml", "path to TOML config file")
	return root
}

func createStartCommand(globalFlags *GlobalFlags, processFlags *ProcessFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start configured processes",
		Long: `Start the named process, or every configured process when --name is
omitted. Started children are placed in their own process group and keep
running after this command exits.

Examples:
  respawn start                 # start everything in the config
  respawn start --name=web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(globalFlags.ConfigPath, *processFlags)
		},
	}
	addProcessFlags(cmd, processFlags)
	return cmd
}

func createStopCommand(globalFlags *GlobalFlags, processFlags *ProcessFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop managed processes",
		Long: `Stop the named process, or every managed process when --name is
omitted. The record is removed immediately; the child is signaled and left
to exit on its own.

Examples:
  respawn stop --name=web
  respawn stop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(globalFlags.ConfigPath, *processFlags)
		},
	}
	addProcessFlags(cmd, processFlags)
	return cmd
}

func createRestartCommand(globalFlags *GlobalFlags, processFlags *ProcessFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart a process with freshly loaded configuration",
		Long: `Stop and re-launch the named process. Unlike crash restarts, which
reuse the spec captured at start time, this re-reads the config file so
edited settings take effect.

Example:
  respawn restart --name=web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(globalFlags.ConfigPath, *processFlags)
		},
	}
	addProcessFlags(cmd, processFlags)
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

func createStatusCommand(globalFlags *GlobalFlags, processFlags *ProcessFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show managed process status",
		Long: `Show the status of managed processes, reconciled against the live
system: records whose process kept running are shown as running-detached,
records whose process died are shown as stopped.

Examples:
  respawn status
  respawn status --name=web
  respawn status --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), globalFlags.ConfigPath, *processFlags)
		},
	}
	addProcessFlags(cmd, processFlags)
	return cmd
}

func createCleanupCommand(globalFlags *GlobalFlags, processFlags *ProcessFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop records whose process is gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.OutOrStdout(), globalFlags.ConfigPath, *processFlags)
		},
	}
	addProcessFlags(cmd, processFlags)
	return cmd
}

func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon",
		Long: `Run the supervisor in the foreground: start every configured process,
watch for exits, apply the crash-restart policy, and serve the HTTP API
and Prometheus metrics. On shutdown the children are left running; the
next invocation re-adopts them from the persisted state.

Examples:
  respawn serve
  respawn serve --config=/etc/respawn/respawn.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(globalFlags.ConfigPath, *serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "HTTP API listen address (overrides [server].listen)")
	return cmd
}
