package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/retriever"
)

var (
	retrieveQuery string
	retrieveTopK  int
	retrieveType  string
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Score and rank chunks/memories against a query",
	RunE:  runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVar(&retrieveQuery, "query", "", "query text (required)")
	retrieveCmd.Flags().IntVar(&retrieveTopK, "top-k", 10, "maximum results to return")
	retrieveCmd.Flags().StringVar(&retrieveType, "type", "both", "chunks, memories, or both")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
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

	kind := retriever.Kind(retrieveType)
	switch kind {
	case retriever.KindChunks, retriever.KindMemories, retriever.KindBoth:
	default:
		return fmt.Errorf("invalid --type %q (must be chunks, memories, or both)", retrieveType)
	}

	results, err := retriever.Retrieve(cmd.Context(), provider, root, retrieveQuery, retriever.Options{
		TopK: retrieveTopK, Kind: kind,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%s] %s  score=%.4f (semantic=%.4f keyword=%.4f recency=%.4f frequency=%.4f)\n",
			i+1, r.Type, r.ID, r.Score, r.SemanticScore, r.KeywordScore, r.RecencyScore, r.FrequencyScore)
	}

	return nil
}
