package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cortexlabs/cortex/internal/chunker"
	"github.com/cortexlabs/cortex/internal/index"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/memory"
)

var (
	staleModifiedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")) // yellow
	staleDeletedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")) // red
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Cortex's current state and statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit status as JSON")
}

type domainCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type staleSummary struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}

type indexSummary struct {
	Count     int `json:"count"`
	SizeBytes int64 `json:"size_bytes"`
}

type statusReport struct {
	Initialized bool                    `json:"initialized"`
	Chunks      struct {
		Count   int           `json:"count"`
		Domains []domainCount `json:"domains"`
	} `json:"chunks"`
	Memories struct {
		Count    int            `json:"count"`
		ByType   map[string]int `json:"by_type"`
		ByDomain map[string]int `json:"by_domain"`
	} `json:"memories"`
	Indices     map[string]*indexSummary `json:"indices"`
	Stale       []staleSummary           `json:"stale"`
	LastUpdated *string                  `json:"last_updated"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	report := statusReport{Indices: map[string]*indexSummary{}}
	report.Memories.ByType = map[string]int{}
	report.Memories.ByDomain = map[string]int{}

	if _, statErr := os.Stat(layout.CortexDir(root)); statErr == nil {
		report.Initialized = true
	}

	if report.Initialized {
		if err := fillChunkStatus(root, &report); err != nil {
			return err
		}
		if err := fillMemoryStatus(root, &report); err != nil {
			return err
		}
		fillIndexStatus(root, &report)
		fillLastUpdated(root, &report)
	}

	if statusJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printStatus(report)
	return nil
}

func fillChunkStatus(root string, report *statusReport) error {
	chunksPath := layout.ChunksDir(root)
	entries, err := os.ReadDir(chunksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		domainPath := filepath.Join(chunksPath, e.Name())
		files, err := os.ReadDir(domainPath)
		if err != nil {
			continue
		}
		count := 0
		for _, f := range files {
			if filepath.Ext(f.Name()) == ".md" {
				count++
			}
		}
		if count > 0 {
			report.Chunks.Domains = append(report.Chunks.Domains, domainCount{Name: e.Name(), Count: count})
			report.Chunks.Count += count
		}
	}

	sort.Slice(report.Chunks.Domains, func(i, j int) bool {
		return report.Chunks.Domains[i].Name < report.Chunks.Domains[j].Name
	})

	stale, err := chunker.GetStaleChunks(root)
	if err != nil {
		return err
	}

	staleBySource := map[string]*staleSummary{}
	var order []string
	for _, s := range stale {
		existing, ok := staleBySource[s.SourcePath]
		if !ok {
			existing = &staleSummary{Source: s.SourcePath, Status: s.Status}
			staleBySource[s.SourcePath] = existing
			order = append(order, s.SourcePath)
		}
		existing.Count++
	}
	for _, src := range order {
		report.Stale = append(report.Stale, *staleBySource[src])
	}

	return nil
}

func fillMemoryStatus(root string, report *statusReport) error {
	memories, err := memory.List(root, memory.ListFilter{})
	if err != nil {
		return err
	}

	report.Memories.Count = len(memories)
	for _, m := range memories {
		report.Memories.ByType[m.Type]++
		report.Memories.ByDomain[m.Domain]++
	}

	return nil
}

func fillIndexStatus(root string, report *statusReport) {
	for _, kind := range []index.Kind{index.Chunks, index.Memories} {
		stats, err := index.GetStats(root, kind)
		if err != nil || stats.Count == 0 {
			continue
		}
		matrixPath := layout.IndexMatrixPath(root, string(kind))
		size := int64(0)
		if info, err := os.Stat(matrixPath); err == nil {
			size = info.Size()
		}
		report.Indices[string(kind)] = &indexSummary{Count: stats.Count, SizeBytes: size}
	}
}

func fillLastUpdated(root string, report *statusReport) {
	indexPath := layout.IndexDir(root)
	entries, err := os.ReadDir(indexPath)
	if err != nil {
		return
	}

	var latest time.Time
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}

	if !latest.IsZero() {
		s := latest.Format(time.RFC3339)
		report.LastUpdated = &s
	}
}

func printStatus(report statusReport) {
	fmt.Println("Cortex Status")
	fmt.Println("=============")
	fmt.Println()

	if !report.Initialized {
		fmt.Println("Status: NOT INITIALIZED")
		fmt.Println()
		fmt.Println("Run: cortex init")
		return
	}

	fmt.Println("Status: INITIALIZED")
	fmt.Println()

	fmt.Printf("Chunks: %d total\n", report.Chunks.Count)
	for _, d := range report.Chunks.Domains {
		fmt.Printf("  - %s: %d\n", d.Name, d.Count)
	}

	if len(report.Stale) > 0 {
		fmt.Println()
		fmt.Println("Stale Chunks:")
		for _, s := range report.Stale {
			label := staleModifiedStyle.Render("modified")
			if s.Status == "deleted" {
				label = staleDeletedStyle.Render("source deleted")
			}
			fmt.Printf("  - %s (%d chunks, %s)\n", s.Source, s.Count, label)
		}
		fmt.Println()
		fmt.Println("  Refresh with: cortex chunk --path <source> --refresh")
	}
	fmt.Println()

	fmt.Printf("Memories: %d total\n", report.Memories.Count)
	if len(report.Memories.ByType) > 0 {
		fmt.Println("  By type:")
		for _, t := range sortedKeys(report.Memories.ByType) {
			fmt.Printf("    - %s: %d\n", t, report.Memories.ByType[t])
		}
	}
	if len(report.Memories.ByDomain) > 0 {
		fmt.Println("  By domain:")
		for _, d := range sortedKeys(report.Memories.ByDomain) {
			fmt.Printf("    - %s: %d\n", d, report.Memories.ByDomain[d])
		}
	}
	fmt.Println()

	fmt.Println("Indices:")
	for _, kind := range []string{"chunks", "memories"} {
		if summary, ok := report.Indices[kind]; ok {
			fmt.Printf("  - %s: %d vectors (%.1f KB)\n", kind, summary.Count, float64(summary.SizeBytes)/1024)
		} else {
			fmt.Printf("  - %s: NOT BUILT\n", kind)
		}
	}
	fmt.Println()

	if report.LastUpdated != nil {
		fmt.Printf("Last updated: %s\n", *report.LastUpdated)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
