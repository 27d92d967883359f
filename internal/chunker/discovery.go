package chunker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// discovery walks a directory tree and reports markdown files that match
// a set of docs glob patterns and don't match any ignore pattern.
type discovery struct {
	rootDir        string
	docsPatterns   []glob.Glob
	ignorePatterns []glob.Glob
}

func newDiscovery(rootDir string, docsPatterns, ignorePatterns []string) (*discovery, error) {
	d := &discovery{rootDir: rootDir}

	for _, pattern := range docsPatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.docsPatterns = append(d.docsPatterns, g)
	}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, g)
	}

	return d, nil
}

// discoverDocs walks the tree and returns matching file paths, absolute.
func (d *discovery) discoverDocs() ([]string, error) {
	var docs []string

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.shouldIgnore(relPath) {
			return nil
		}
		if d.matchesAny(relPath, d.docsPatterns) {
			docs = append(docs, path)
		}
		return nil
	})

	return docs, err
}

func (d *discovery) shouldIgnore(relPath string) bool {
	if strings.HasPrefix(relPath, ".cortex/") || relPath == ".cortex" {
		return true
	}
	if d.matchesAny(relPath, d.ignorePatterns) {
		return true
	}
	return d.matchesAny(relPath+"/**", d.ignorePatterns)
}

func (d *discovery) matchesAny(path string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}
