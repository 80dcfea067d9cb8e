package guardrail

import "strings"

// blockedCategory pairs a reported category name with its term list.
// The slice order is fixed so the first matching category is deterministic.
type blockedCategory struct {
	name  string
	terms []string
}

var blockedCategories = []blockedCategory{
	{
		name: "violence",
		terms: []string{
			"kill", "murder", "assassinate", "bomb", "terrorist", "terrorism",
			"mass shooting", "genocide", "torture",
		},
	},
	{
		name: "sexual content",
		terms: []string{
			"porn", "xxx", "nude", "naked", "sex video",
		},
	},
	{
		name: "illegal activity",
		terms: []string{
			"hack into", "crack password", "steal credit card", "identity theft",
			"counterfeit", "money laundering", "tax evasion", "drug dealing",
		},
	},
	{
		name: "weapons",
		terms: []string{
			"make a bomb", "build explosive", "gun silencer", "3d print gun",
		},
	},
	{
		name: "hate speech",
		terms: []string{
			"white supremacy", "nazi", "racial slur",
		},
	},
	{
		name: "self-harm",
		terms: []string{
			"how to suicide", "kill myself", "self harm methods",
		},
	},
	{
		name: "drugs",
		terms: []string{
			"cook meth", "make cocaine", "grow marijuana illegally",
		},
	},
}

// matchBlockedCategory performs case-insensitive substring matching against
// the category lists and reports the first category with a hit.
func matchBlockedCategory(topic string) (string, bool) {
	lower := strings.ToLower(topic)
	for _, category := range blockedCategories {
		for _, term := range category.terms {
			if strings.Contains(lower, term) {
				return category.name, true
			}
		}
	}
	return "", false
}
