package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"arcbatch/pkg/archive"
	"arcbatch/pkg/batch"
	"arcbatch/pkg/plog"
	"arcbatch/pkg/util"
)

func newCompressCmd() *cobra.Command {
	var (
		sourceDirs   []string
		outputDir    string
		formatName   string
		overwrite    bool
		deleteSource bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Archive source directories into an output directory",
		Long: `Creates one compressed archive per source directory, named after the
directory's last path segment. Existing archives are skipped unless
--overwrite is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := archive.ParseFormat(formatName)
			if err != nil {
				return err
			}
			outputDir, err := util.ExpandPath(outputDir)
			if err != nil {
				return err
			}

			log, err := plog.New(outputDir, "compression", verbose)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer log.Close()

			a := &batch.Archiver{
				OutputDir:    outputDir,
				Format:       format,
				Overwrite:    overwrite,
				DeleteSource: deleteSource,
			}
			a.Run(log, sourceDirs)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sourceDirs, "source_directories", "s", nil, "source directories to archive")
	cmd.Flags().StringVar(&outputDir, "output_directory", "", "directory to output archives")
	cmd.Flags().StringVar(&formatName, "archive_format", "bztar", "format of the archive: 'zip', 'tar', 'gztar', 'bztar', 'xztar'")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "whether to overwrite an existing archive")
	cmd.Flags().BoolVarP(&deleteSource, "delete_source", "d", false, "whether to delete source directories after archiving")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "be verbose")
	cmd.MarkFlagRequired("source_directories")
	cmd.MarkFlagRequired("output_directory")

	return cmd
}
