package search

import (
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	titleMatchBonus    = float32(0.1)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"do": {}, "for": {}, "from": {}, "has": {}, "have": {}, "how": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "my": {}, "of": {}, "on": {}, "or": {}, "should": {}, "the": {}, "to": {}, "was": {},
	"were": {}, "what": {}, "with": {},
}

// lexicalScore computes a lightweight lexical relevance score for a passage
// relative to a query. The score is normalized to remain in a predictable
// range so it can be blended with vector similarity scores.
func lexicalScore(query, content, title string) float32 {
	queryTokens := FilterStopwords(Tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	contentTokens := Tokenize(content)
	if len(contentTokens) == 0 {
		return 0
	}

	contentFreq := make(map[string]int, len(contentTokens))
	for _, token := range contentTokens {
		contentFreq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += contentFreq[token]
	}

	score := (float32(rawMatches) / (1 + float32(len(contentTokens)))) * lexicalLengthScale

	if title != "" {
		titleTokens := Tokenize(title)
		if len(titleTokens) > 0 {
			titleSet := make(map[string]struct{}, len(titleTokens))
			for _, token := range titleTokens {
				titleSet[token] = struct{}{}
			}
			var titleMatches int
			for _, token := range queryTokens {
				if _, ok := titleSet[token]; ok {
					titleMatches++
				}
			}
			score += float32(titleMatches) * titleMatchBonus
		}
	}

	if score > maxLexicalScore {
		return maxLexicalScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// Tokenize lowercases text and splits it into alphanumeric tokens.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// FilterStopwords drops common English stopwords from a token list.
func FilterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
