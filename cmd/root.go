// Package cmd defines the command-line surface: one root command with the
// compress and unpack subcommands. Flag and format validation fails fast with
// a non-zero exit; once a batch starts, per-entry errors are logged and the
// process still exits zero.
package cmd

import (
	"github.com/spf13/cobra"

	"arcbatch/pkg/buildinfo"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     buildinfo.Name,
		Short:   "Bulk-archive and bulk-unarchive directories",
		Version: buildinfo.Version,
		// Usage on a bad flag is helpful; usage after a failed batch is noise.
		SilenceUsage: true,
	}
	root.AddCommand(newCompressCmd())
	root.AddCommand(newUnpackCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
