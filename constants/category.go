package constants

import (
	"strings"
)

type Category string

const (
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Transportation Category = "Transportation"
	Groceries      Category = "Groceries"
	Subscriptions  Category = "Subscriptions"
	Insurance      Category = "Insurance"
	Loans          Category = "Loans"
	CreditCards    Category = "Credit Cards"
	Medical        Category = "Medical"
	Entertainment  Category = "Entertainment"
	Other          Category = "Other"
)

var allCategories = []Category{
	Housing,
	Utilities,
	Transportation,
	Groceries,
	Subscriptions,
	Insurance,
	Loans,
	CreditCards,
	Medical,
	Entertainment,
	Other,
}

// synonyms maps lower-cased labels the model (or an older client) tends to emit onto the
// canonical vocabulary.
var synonyms = map[string]Category{
	"subscription":  Subscriptions,
	"streaming":     Subscriptions,
	"rent":          Housing,
	"mortgage":      Housing,
	"rent/mortgage": Housing,
	"electricity":   Utilities,
	"water":         Utilities,
	"internet":      Utilities,
	"utility":       Utilities,
	"car":           Transportation,
	"fuel":          Transportation,
	"transport":     Transportation,
	"food":          Groceries,
	"loan":          Loans,
	"credit card":   CreditCards,
	"creditcards":   CreditCards,
	"health":        Medical,
	"medical aid":   Medical,
}

// AsStringSlice returns the default vocabulary in display order.
func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps input onto a member of allowed (case-insensitive), consulting the synonym
// table when there is no direct match. A synonym only resolves if its target is in allowed.
func Canonicalize(input string, allowed []string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	for _, a := range allowed {
		if normalized == strings.ToLower(a) {
			return a, true
		}
	}

	if cat, ok := synonyms[normalized]; ok {
		for _, a := range allowed {
			if strings.EqualFold(a, string(cat)) {
				return a, true
			}
		}
	}
	return "", false
}
