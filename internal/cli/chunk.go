package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/chunker"
)

var (
	chunkPath    string
	chunkDomain  string
	chunkRefresh bool
	chunkQuiet   bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Chunk a markdown file or directory into the knowledge store",
	RunE:  runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().StringVar(&chunkPath, "path", "", "file or directory to chunk (required)")
	chunkCmd.Flags().StringVar(&chunkDomain, "domain", "", "domain tag override (auto-detected when empty)")
	chunkCmd.Flags().BoolVar(&chunkRefresh, "refresh", false, "delete existing chunks for this source before re-chunking")
	chunkCmd.Flags().BoolVarP(&chunkQuiet, "quiet", "q", false, "disable progress output")
	chunkCmd.MarkFlagRequired("path")
}

func runChunk(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := requireInitialized(root); err != nil {
		return err
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
		info, err := os.Stat(chunkPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", chunkPath, err)
		}

		if chunkRefresh {
			existing, err := chunker.GetChunksBySource(root, chunkPath)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				deleted, err := chunker.DeleteChunks(root, existing)
				if err != nil {
					return err
				}
				if !chunkQuiet {
					fmt.Printf("Deleted %d old chunks\n", deleted)
				}
			}
		}

		if info.IsDir() {
			reporter := newProgressReporter(chunkQuiet)
			reporter.start(-1, "chunking")
			chunks, errs := chunker.ChunkDirectory(ctx, cfg.Chunking, provider, root, chunkPath, chunkDomain, cfg.Paths.Docs, cfg.Paths.Ignore)
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, "warning:", e)
			}
			reporter.done(fmt.Sprintf("Chunked %s files into %s chunks",
				formatNumber(countUniqueSources(chunks)), formatNumber(len(chunks))))
			return nil
		}

		chunks, err := chunker.ChunkDocument(ctx, cfg.Chunking, provider, root, chunkPath, chunkDomain)
		if err != nil {
			return err
		}
		fmt.Printf("Chunked %s into %d chunks\n", chunkPath, len(chunks))
		return nil
	})
}

func countUniqueSources(chunks []chunker.Chunk) int {
	seen := map[string]bool{}
	for _, c := range chunks {
		seen[c.SourcePath] = true
	}
	return len(seen)
}
