package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"arcbatch/pkg/batch"
	"arcbatch/pkg/plog"
	"arcbatch/pkg/util"
)

func newUnpackCmd() *cobra.Command {
	var (
		sourceFiles  []string
		outputDir    string
		overwrite    bool
		deleteSource bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Extract source archives into an output directory",
		Long: `Extracts each source archive into the output directory. The archive
format is inferred per file from its suffix. An archive whose extraction
directory already exists is skipped unless --overwrite is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, err := util.ExpandPath(outputDir)
			if err != nil {
				return err
			}

			log, err := plog.New(outputDir, "decompression", verbose)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer log.Close()

			u := &batch.Unpacker{
				OutputDir:    outputDir,
				Overwrite:    overwrite,
				DeleteSource: deleteSource,
			}
			u.Run(log, sourceFiles)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sourceFiles, "source_files", "s", nil, "source archives to unpack")
	cmd.Flags().StringVar(&outputDir, "output_directory", "", "directory to output unpacked archives")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "whether to overwrite an existing unpacked archive")
	cmd.Flags().BoolVarP(&deleteSource, "delete_source", "d", false, "whether to delete source archives after unpacking")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "be verbose")
	cmd.MarkFlagRequired("source_files")
	cmd.MarkFlagRequired("output_directory")

	return cmd
}
