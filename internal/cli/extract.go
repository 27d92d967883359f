package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/extractor"
)

var (
	extractText          string
	extractAutoSave      bool
	extractMinConfidence string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Scan text for candidate memories",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractText, "text", "", "text to scan, e.g. a session transcript (required)")
	extractCmd.Flags().BoolVar(&extractAutoSave, "auto-save", false, "persist every candidate at or above --min-confidence")
	extractCmd.Flags().StringVar(&extractMinConfidence, "min-confidence", "medium", "low, medium, or high")
	extractCmd.MarkFlagRequired("text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	proposed := extractor.Extract(extractText, extractMinConfidence)

	if !extractAutoSave {
		fmt.Print(extractor.FormatForDisplay(proposed))
		return nil
	}

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

	provider, err := newEmbedProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	indices := make([]int, len(proposed))
	for i := range proposed {
		indices[i] = i + 1
	}

	var ids []string
	err = withLock(root, func() error {
		var saveErr error
		ids, saveErr = extractor.Save(cmd.Context(), provider, root, proposed, indices, "")
		return saveErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Saved %d memories: %v\n", len(ids), ids)
	return nil
}
