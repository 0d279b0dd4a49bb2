package domain

import "strings"

// Term is a grounding fact injected into condition evaluation and response generation.
type Term struct {
	Name        string   `json:"name" yaml:"name"`
	Synonyms    []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Description string   `json:"description" yaml:"description"`
}

// Key returns the case-insensitive identity of the term.
func (t Term) Key() string {
	return NormalizeKey(t.Name)
}

// Matches reports whether the text mentions the term's name or one of its synonyms.
func (t Term) Matches(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, t.Key()) {
		return true
	}
	for _, s := range t.Synonyms {
		if s != "" && strings.Contains(lower, NormalizeKey(s)) {
			return true
		}
	}
	return false
}

// NormalizeKey folds a name for case-insensitive comparisons.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
