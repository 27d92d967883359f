package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/layout"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .cortex directory structure",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "reinitialize even if .cortex already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cortexPath := layout.CortexDir(root)
	if _, err := os.Stat(cortexPath); err == nil && !initForce {
		fmt.Printf("Cortex already initialized at: %s\n", cortexPath)
		return nil
	}

	for _, dir := range []string{layout.ChunksDir(root), layout.IndexDir(root), layout.MemoriesDir(root)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	fmt.Printf("Initialized Cortex at: %s\n", cortexPath)
	fmt.Println("  Created: chunks/")
	fmt.Println("  Created: index/")
	fmt.Println("  Created: memories/")

	return nil
}
