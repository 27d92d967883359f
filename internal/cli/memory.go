package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage recorded learnings (memories)",
}

func init() {
	rootCmd.AddCommand(memoryCmd)
}

var (
	memoryAddLearning   string
	memoryAddContext    string
	memoryAddDomain     string
	memoryAddConfidence string
)

var memoryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new memory",
	RunE:  runMemoryAdd,
}

func init() {
	memoryCmd.AddCommand(memoryAddCmd)
	memoryAddCmd.Flags().StringVar(&memoryAddLearning, "learning", "", "the learning statement (required)")
	memoryAddCmd.Flags().StringVar(&memoryAddContext, "context", "", "surrounding context (required)")
	memoryAddCmd.Flags().StringVar(&memoryAddDomain, "domain", "", "domain tag (default GENERAL)")
	memoryAddCmd.Flags().StringVar(&memoryAddConfidence, "confidence", "medium", "high, medium, or low")
	memoryAddCmd.MarkFlagRequired("learning")
	memoryAddCmd.MarkFlagRequired("context")
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
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

	var m memory.Memory
	err = withLock(root, func() error {
		var createErr error
		m, createErr = memory.Create(cmd.Context(), provider, root, memory.CreateParams{
			Learning:   memoryAddLearning,
			Context:    memoryAddContext,
			Domain:     memoryAddDomain,
			Confidence: memoryAddConfidence,
		})
		return createErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created memory %s\n", m.ID)
	return nil
}

var (
	memoryListDomain     string
	memoryListType       string
	memoryListMinConfidence string
)

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded memories",
	RunE:  runMemoryList,
}

func init() {
	memoryCmd.AddCommand(memoryListCmd)
	memoryListCmd.Flags().StringVar(&memoryListDomain, "domain", "", "filter by domain")
	memoryListCmd.Flags().StringVar(&memoryListType, "type", "", "filter by type")
	memoryListCmd.Flags().StringVar(&memoryListMinConfidence, "min-confidence", "", "minimum confidence (low, medium, high)")
}

var confidenceRank = map[string]int{"low": 0, "medium": 1, "high": 2}

func runMemoryList(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := requireInitialized(root); err != nil {
		return err
	}

	memories, err := memory.List(root, memory.ListFilter{Domain: memoryListDomain, Type: memoryListType})
	if err != nil {
		return err
	}

	minRank, filterByConfidence := confidenceRank[memoryListMinConfidence]
	if filterByConfidence {
		filtered := memories[:0]
		for _, m := range memories {
			if confidenceRank[m.Confidence] >= minRank {
				filtered = append(filtered, m)
			}
		}
		memories = filtered
	}

	if len(memories) == 0 {
		fmt.Println("No memories recorded.")
		return nil
	}

	for _, m := range memories {
		fmt.Printf("%s [%s/%s/%s] %s\n", m.ID, m.Type, m.Domain, m.Confidence, m.Learning)
	}

	return nil
}

var memoryDeleteID string

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a memory by id",
	RunE:  runMemoryDelete,
}

func init() {
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryDeleteCmd.Flags().StringVar(&memoryDeleteID, "id", "", "memory id (required)")
	memoryDeleteCmd.MarkFlagRequired("id")
}

func runMemoryDelete(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := requireInitialized(root); err != nil {
		return err
	}

	var deleted bool
	err = withLock(root, func() error {
		var delErr error
		deleted, delErr = memory.Delete(root, memoryDeleteID)
		return delErr
	})
	if err != nil {
		return err
	}

	if !deleted {
		fmt.Printf("No memory found with id %s\n", memoryDeleteID)
		return nil
	}

	fmt.Printf("Deleted memory %s\n", memoryDeleteID)
	return nil
}
