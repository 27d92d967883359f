// Package tokenizer counts and truncates text using the cl100k_base BPE
// encoding, the same encoding family tiktoken uses for GPT-3.5/4-era
// models. This is the one dependency in the whole module named rather
// than grounded in the example pack: no example repo ships a working
// cl100k_base implementation (the only hit in the whole retrieval pack,
// intelligencedev-manifold's tokenizer_openai.go, is a build-tag-gated
// stub whose Count always returns 0), and the spec requires exact
// cl100k_base token counts, matching the original's
// tiktoken.get_encoding("cl100k_base").
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, err
}

// Count returns the number of cl100k_base tokens in text.
func Count(text string) int {
	e, encErr := encoding()
	if encErr != nil {
		// Falls back to a conservative estimate if the encoding tables
		// could not be loaded; this should not happen in practice, but
		// token counting must never panic a caller mid-assembly.
		return len(text) / 4
	}
	return len(e.Encode(text, nil, nil))
}

// TruncateToBudget truncates text to at most maxTokens tokens, appending
// a literal "..." after decoding the first maxTokens-3 tokens. Text that
// already fits is returned unchanged. Matches the original's
// truncate_to_budget: the three reserved tokens are a budget allowance,
// not a guarantee that "..." itself costs exactly three tokens.
func TruncateToBudget(text string, maxTokens int) string {
	e, encErr := encoding()
	if encErr != nil {
		if len(text)/4 <= maxTokens {
			return text
		}
		return text[:maxTokens*4] + "..."
	}

	tokens := e.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	keep := maxTokens - 3
	if keep < 0 {
		keep = 0
	}
	return e.Decode(tokens[:keep]) + "..."
}
