package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/chunker"
	"github.com/cortexlabs/cortex/internal/index"
	"github.com/cortexlabs/cortex/internal/layout"
)

var bootstrapForce bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Initialize, chunk configured docs paths, and build indices in one step",
	RunE:  runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().BoolVar(&bootstrapForce, "force", false, "delete and re-chunk existing sources before bootstrapping")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	if _, err := os.Stat(layout.CortexDir(root)); err != nil {
		if err := runInit(cmd, nil); err != nil {
			return err
		}
	} else {
		fmt.Printf("Cortex already initialized at: %s\n", layout.CortexDir(root))
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := cancelableContext()
	defer cancel()

	provider, err := newEmbedProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	return withLock(root, func() error {
		if bootstrapForce {
			if err := os.RemoveAll(layout.ChunksDir(root)); err != nil {
				return fmt.Errorf("failed to clear existing chunks: %w", err)
			}
			if err := os.MkdirAll(layout.ChunksDir(root), 0o755); err != nil {
				return err
			}
			fmt.Println("Cleared existing chunks")
		}

		reporter := newProgressReporter(false)

		reporter.start(-1, "chunking")
		chunks, errs := chunker.ChunkDirectory(ctx, cfg.Chunking, provider, root, root, "", cfg.Paths.Docs, cfg.Paths.Ignore)
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "warning:", e)
		}
		reporter.done(fmt.Sprintf("Bootstrapped %s chunks from %s sources",
			formatNumber(len(chunks)), formatNumber(countUniqueSources(chunks))))

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
