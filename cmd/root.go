// Package cmd implements reactivectl's cobra command tree: a demonstration
// and operator harness around the reactive package, not a new engine of
// its own.
package cmd

import (
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericiooptions"
)

// NewRootCmd builds reactivectl's root command, wiring streams into every
// subcommand via genericiooptions.
func NewRootCmd(streams genericiooptions.IOStreams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reactivectl",
		Short:         "Drive the reactive data manager against an in-memory demo or real Kubernetes manifests.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.ErrOut)

	rootCmd.AddCommand(NewDemoCmd(streams))
	rootCmd.AddCommand(NewGraphCmd(streams))
	rootCmd.AddCommand(NewWatchCmd(streams))
	return rootCmd
}
