package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/lockfile"
)

// projectRoot returns the current working directory, the implicit root
// for every command.
func projectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadConfig loads the layered config for root, falling back to defaults
// when no config file exists.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newEmbedProvider builds the embedding provider named by cfg, matching
// the teacher's Provider lifecycle (created once per command, closed on
// exit).
func newEmbedProvider(cfg *config.Config) (embed.Provider, error) {
	provider, err := embed.NewProvider(embed.Config{
		Provider:   cfg.Embedding.Provider,
		Endpoint:   cfg.Embedding.Endpoint,
		Dimensions: cfg.Embedding.Dimensions,
		Model:      cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	return provider, nil
}

// cancelableContext returns a context cancelled on SIGINT/SIGTERM, for
// commands that may run long enough to want graceful interruption.
func cancelableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// withLock acquires the project's single-writer advisory lock for the
// duration of fn, releasing it on return (including on panic-free error
// paths and signal-driven cancellation of the caller's context).
func withLock(root string, fn func() error) error {
	if err := os.MkdirAll(layout.CortexDir(root), 0o755); err != nil {
		return fmt.Errorf("failed to create .cortex directory: %w", err)
	}

	lock, err := lockfile.Acquire(layout.LockPath(root))
	if err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}

func requireInitialized(root string) error {
	if _, err := os.Stat(layout.CortexDir(root)); err != nil {
		return cortexerr.ErrNotInitialized
	}
	return nil
}
