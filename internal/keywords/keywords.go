// Package keywords implements the single TF-based keyword extraction
// algorithm shared by the chunker and the memory store. The original
// Python implementation duplicated this function once per module; this
// package gives it one home, per the Design Note about near-duplicate
// chunker modules generalizing to "don't duplicate the shared helpers
// either."
package keywords

import (
	"regexp"
	"sort"
)

// stopwords is the broader union set used by keyword extraction (as
// opposed to the narrower set the retriever uses for query keywords).
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "were": true,
	"being": true, "their": true, "there": true, "this": true,
	"that": true, "with": true, "they": true, "from": true,
	"will": true, "would": true, "could": true, "should": true,
	"which": true, "when": true, "where": true, "what": true,
	"each": true, "into": true, "than": true, "then": true,
	"also": true, "only": true, "other": true, "such": true,
	"more": true, "some": true, "very": true, "just": true,
	"about": true, "over": true, "after": true, "before": true,
}

var (
	codeFenceRe   = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`]+`")
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	markdownSyntaxRe = regexp.MustCompile(`[#*_~` + "`" + `>\-|]`)
	wordRe        = regexp.MustCompile(`\b[a-z]{3,}\b`)
)

// Extract returns up to maxKeywords words from text, ranked by term
// frequency after stripping markdown syntax and stopwords. Ties in
// frequency preserve the order Go's stable sort would produce, which
// is not guaranteed to match Python's dict-insertion-order tie-breaking
// exactly; the spec does not test keyword ordering among equal-frequency
// terms.
func Extract(text string, maxKeywords int) []string {
	lower := toLower(text)
	clean := codeFenceRe.ReplaceAllString(lower, "")
	clean = inlineCodeRe.ReplaceAllString(clean, "")
	clean = markdownLinkRe.ReplaceAllString(clean, "$1")
	clean = markdownSyntaxRe.ReplaceAllString(clean, " ")

	words := wordRe.FindAllString(clean, -1)

	freq := map[string]int{}
	order := []string{}
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		if _, seen := freq[w]; !seen {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
