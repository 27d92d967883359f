package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/index"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the dense vector indices over chunks and memories",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "rebuild both chunk and memory indices (default behavior; flag kept for explicitness)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := requireInitialized(root); err != nil {
		return err
	}

	return withLock(root, func() error {
		reporter := newProgressReporter(false)
		reporter.start(-1, "indexing")

		chunkCount, chunkWarnings, err := index.Build(root, index.Chunks)
		if err != nil {
			return fmt.Errorf("failed to build chunk index: %w", err)
		}
		for _, w := range chunkWarnings {
			fmt.Println("warning:", w)
		}

		memoryCount, memoryWarnings, err := index.Build(root, index.Memories)
		if err != nil {
			return fmt.Errorf("failed to build memory index: %w", err)
		}
		for _, w := range memoryWarnings {
			fmt.Println("warning:", w)
		}

		reporter.done(fmt.Sprintf("Indexed %s chunks, %s memories", formatNumber(chunkCount), formatNumber(memoryCount)))
		return nil
	})
}
