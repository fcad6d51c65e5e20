package types

// IntentType classifies a query's purpose.
type IntentType string

const (
	// IntentSearch is a plain free-text search.
	IntentSearch IntentType = "search"
	// IntentCategoryKeyword is a keyword search scoped to a category.
	IntentCategoryKeyword IntentType = "category_keyword"
	// IntentCategoryOnly is pure category navigation with no keywords.
	IntentCategoryOnly IntentType = "category_only"
	// IntentQuestion is a natural-language question.
	IntentQuestion IntentType = "question"
)

// ParseIntentType maps a raw intent label onto the enum, defaulting to
// IntentSearch for anything unrecognized.
func ParseIntentType(s string) IntentType {
	switch IntentType(s) {
	case IntentCategoryKeyword, IntentCategoryOnly, IntentQuestion:
		return IntentType(s)
	default:
		return IntentSearch
	}
}

// QueryIntent is the structured understanding of one raw query string.
// It is produced once per normalized query and immutable once cached.
type QueryIntent struct {
	Intent         IntentType `json:"intent"`
	Category       string     `json:"category,omitempty"`
	Keywords       []string   `json:"keywords"`
	CorrectedQuery string     `json:"corrected_query,omitempty"`
	ExpandedTerms  []string   `json:"expanded_terms"`
	Synonyms       []string   `json:"synonyms"`
	DidYouMean     string     `json:"did_you_mean,omitempty"`
}

// EffectiveCategory returns the detected category only when the intent is
// category-scoped. A category inferred for a plain search or a question must
// not silently narrow results the user did not explicitly scope.
func (qi *QueryIntent) EffectiveCategory() string {
	if qi.Intent == IntentCategoryKeyword || qi.Intent == IntentCategoryOnly {
		return qi.Category
	}
	return ""
}

// Suggestion returns the corrected-query suggestion to surface to the user:
// didYouMean if present, else correctedQuery.
func (qi *QueryIntent) Suggestion() string {
	if qi.DidYouMean != "" {
		return qi.DidYouMean
	}
	return qi.CorrectedQuery
}
