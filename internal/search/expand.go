package search

import "strings"

// domainSynonyms maps business vocabulary to expansion terms appended to
// semantic queries. Terms were chosen to pull in passages that discuss the
// same concept under framework-specific naming.
var domainSynonyms = map[string]string{
	"offer":     "value proposition grand slam offer",
	"offers":    "value proposition grand slam offer",
	"leads":     "lead generation acquisition core four",
	"lead":      "lead generation acquisition",
	"pricing":   "price point value-based pricing premium",
	"price":     "pricing value-based premium",
	"customers": "clients prospects audience",
	"customer":  "client prospect buyer",
	"sales":     "selling closing conversion",
	"marketing": "promotion outreach advertising",
	"scale":     "scaling growth systems",
	"scaling":   "growth systems delegation",
	"retention": "churn loyalty lifetime value",
	"guarantee": "risk reversal assurance",
	"ads":       "paid advertising media buying",
	"content":   "content marketing organic audience",
	"hiring":    "recruiting talent team building",
	"saas":      "software subscription recurring revenue",
}

// expandQuery appends domain-synonym terms for recognized vocabulary.
// Expansion terms already present in the query are not repeated.
func expandQuery(text string) string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return text
	}

	present := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		present[token] = struct{}{}
	}

	var additions []string
	for _, token := range tokens {
		expansion, ok := domainSynonyms[token]
		if !ok {
			continue
		}
		for _, term := range strings.Fields(expansion) {
			if _, exists := present[term]; exists {
				continue
			}
			present[term] = struct{}{}
			additions = append(additions, term)
		}
	}

	if len(additions) == 0 {
		return text
	}
	return text + " " + strings.Join(additions, " ")
}

// implementationMarkers signal that the user wants to execute, not just learn.
var implementationMarkers = []string{"implement", "how to", "execute", "apply", "set up", "start"}

// hasImplementationFocus reports whether the query text signals implementation intent.
func hasImplementationFocus(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range implementationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// frameworkTerms are tokens that indicate the user is asking about a specific
// named methodology rather than a general topic.
var frameworkTerms = []string{
	"grand slam", "core four", "value ladder", "value equation", "lead magnet",
	"framework", "playbook", "method",
}

// hasFrameworkTerms reports whether the query names a specific framework.
func hasFrameworkTerms(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range frameworkTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// businessJargon marks queries dense enough in domain vocabulary that
// expansion plus lexical blending outperforms a plain embedding query.
var businessJargon = []string{
	"ltv", "cac", "churn", "mrr", "arr", "conversion", "funnel", "upsell", "roi",
}

// hasBusinessJargon reports whether the query uses business shorthand.
func hasBusinessJargon(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range businessJargon {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
