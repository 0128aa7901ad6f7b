package feedback

import (
	"regexp"
	"sort"
	"strings"
)

// Sentiment is the coarse bucket derived from the legacy overall rating.
// It is a numeric threshold classifier; comment text is never inspected.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// DefaultThemeCount is the number of top tokens reported by theme
// extraction.
const DefaultThemeCount = 5

var nonWord = regexp.MustCompile(`\W+`)

// stopWords are tokens with no thematic content. Kept small on purpose:
// tokens of length <= 3 are already discarded before this check.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "were": {},
	"been": {}, "they": {}, "them": {}, "their": {}, "there": {}, "which": {},
	"would": {}, "could": {}, "should": {}, "about": {}, "when": {}, "what": {},
	"your": {}, "really": {}, "very": {}, "just": {}, "also": {}, "because": {},
	"will": {}, "more": {}, "some": {}, "much": {}, "than": {}, "then": {},
	"into": {}, "only": {}, "over": {}, "other": {}, "such": {}, "ours": {},
}

// ExtractThemes returns the k most frequent meaningful tokens across the
// given comments, most frequent first. Ties are broken by first-seen order
// so repeated runs over the same input produce identical output.
func ExtractThemes(comments []string, k int) []string {
	if k <= 0 {
		k = DefaultThemeCount
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, comment := range comments {
		for _, token := range nonWord.Split(strings.ToLower(comment), -1) {
			if len(token) <= 3 {
				continue
			}
			if _, stop := stopWords[token]; stop {
				continue
			}
			if _, seen := counts[token]; !seen {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return firstSeen[tokens[i]] < firstSeen[tokens[j]]
	})

	if len(tokens) > k {
		tokens = tokens[:k]
	}
	return tokens
}

// Comments collects the non-empty free-text fields of the given records in
// input order, ready for theme extraction.
func Comments(records []Record) []string {
	var out []string
	for _, rec := range records {
		for _, field := range []TextField{TextHighlight, TextImprovementSuggestion, TextAdditionalComments} {
			if text, ok := rec.FreeText[field]; ok && text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

// SentimentBucket classifies a five-point overall rating.
func SentimentBucket(overall float64) Sentiment {
	switch {
	case overall >= 4:
		return Positive
	case overall == 3:
		return Neutral
	default:
		return Negative
	}
}

// SentimentCounts buckets the legacy five-point records by overall rating.
// Seven-point records are not classified; sentiment thresholds are defined
// on the legacy scale only.
func SentimentCounts(records []Record) map[Sentiment]int {
	counts := map[Sentiment]int{Positive: 0, Neutral: 0, Negative: 0}
	for _, rec := range records {
		if rec.Scale != FivePoint {
			continue
		}
		overall, ok := rec.Rating(CategoryOverall)
		if !ok {
			continue
		}
		counts[SentimentBucket(overall)]++
	}
	return counts
}
