// Package main provides the CLI entry point for canonmap, a tool that maps
// partner JSON payloads into a canonical shape.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonmap/canonmap/log"
	"github.com/canonmap/canonmap/profile"
	"github.com/canonmap/canonmap/version"
)

func main() {
	logCfg := log.NewConfig()
	profCfg := profile.NewConfig()
	profiler := profCfg.NewProfiler()

	rootCmd := &cobra.Command{
		Use:   "canonmap",
		Short: "Map partner payloads into a canonical shape",
		Long: `canonmap analyzes partner JSON payloads, generates and repairs mapping specs,
and executes them to produce canonical output. Payloads, mapping specs, and
target schemas are accepted as JSON or YAML files (- for stdin).`,
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			handler, err := logCfg.NewHandler(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			slog.SetDefault(slog.New(handler))

			return profiler.Start()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return profiler.Stop()
		},
	}

	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	profCfg.RegisterFlags(rootCmd.PersistentFlags())

	completionErr := logCfg.RegisterCompletions(rootCmd)
	if completionErr == nil {
		completionErr = profCfg.RegisterCompletions(rootCmd)
	}

	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newAutomapCmd(),
		newRepairCmd(),
		newValidateCmd(),
		newRunCmd(),
		newSchemaCmd(),
	)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
