package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/assembler"
)

var (
	assembleTask         string
	assembleBudget       int
	assembleOutput       string
	assembleCurrentState string
	assembleInstructions string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a token-budgeted markdown context frame for a task",
	RunE:  runAssemble,
}

func init() {
	rootCmd.AddCommand(assembleCmd)
	assembleCmd.Flags().StringVar(&assembleTask, "task", "", "task description (required)")
	assembleCmd.Flags().IntVar(&assembleBudget, "budget", 0, "total token budget (defaults to config assembly.token_budget)")
	assembleCmd.Flags().StringVar(&assembleOutput, "output", "", "write the rendered markdown to this file in addition to stdout")
	assembleCmd.Flags().StringVar(&assembleCurrentState, "current-state", "", "optional current-state section content")
	assembleCmd.Flags().StringVar(&assembleInstructions, "instructions", "", "optional custom instructions section content")
	assembleCmd.MarkFlagRequired("task")
}

func runAssemble(cmd *cobra.Command, args []string) error {
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

	budget := assembleBudget
	if budget <= 0 {
		budget = cfg.Assembly.TokenBudget
	}

	md, err := assembler.AssembleAndRender(cmd.Context(), provider, root, assembler.Params{
		Task:               assembleTask,
		CurrentState:       assembleCurrentState,
		Instructions:       assembleInstructions,
		Budget:             budget,
		ChunkTopK:          cfg.Retrieval.TopK,
		MemoryTopK:         cfg.Retrieval.MemoryTopK,
	}, assembleOutput)
	if err != nil {
		return err
	}

	fmt.Println(md)
	if assembleOutput != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nWrote context frame to %s\n", assembleOutput)
	}

	return nil
}
