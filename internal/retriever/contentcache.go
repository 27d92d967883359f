package retriever

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cortexlabs/cortex/internal/frontmatter"
)

// chunkContentCacheSize caps how many chunk bodies are kept in memory
// per process. A single retrieval or assembly pass rarely touches more
// than a few hundred distinct chunks.
const chunkContentCacheSize = 512

var chunkContentCache = mustNewContentCache(chunkContentCacheSize)

func mustNewContentCache(size int) *lru.Cache[string, string] {
	cache, err := lru.New[string, string](size)
	if err != nil {
		panic(err)
	}
	return cache
}

// readChunkBody returns the frontmatter-stripped body of the markdown
// file at mdPath, serving from cache when the same chunk has already
// been read during this process's lifetime.
func readChunkBody(mdPath string) (string, error) {
	if body, ok := chunkContentCache.Get(mdPath); ok {
		return body, nil
	}

	content, err := os.ReadFile(mdPath)
	if err != nil {
		return "", err
	}

	body := frontmatter.Body(string(content))
	chunkContentCache.Add(mdPath, body)
	return body, nil
}
