// Package glossary holds the static grounding facts of an agent.
package glossary

import (
	"github.com/aretw0/concierge/pkg/domain"
)

// Glossary is a set of Terms keyed by case-insensitive name.
// It is mutated only while an agent is being built.
type Glossary struct {
	terms  []domain.Term
	index  map[string]int
	frozen bool
}

// New creates an empty glossary.
func New() *Glossary {
	return &Glossary{index: make(map[string]int)}
}

// Create registers a term. Names (and synonyms) must be unique, ignoring case.
func (g *Glossary) Create(name, description string, synonyms ...string) (domain.Term, error) {
	if g.frozen {
		return domain.Term{}, domain.NewConfigError(domain.ConfigFrozen, name, "glossary is frozen")
	}
	key := domain.NormalizeKey(name)
	if key == "" {
		return domain.Term{}, domain.NewConfigError(domain.ConfigInvalid, "term", "name is empty")
	}
	if _, exists := g.index[key]; exists {
		return domain.Term{}, domain.NewConfigError(domain.ConfigDuplicateTerm, name, "a term with this name already exists")
	}
	for _, s := range synonyms {
		if _, exists := g.index[domain.NormalizeKey(s)]; exists {
			return domain.Term{}, domain.NewConfigError(domain.ConfigDuplicateTerm, name, "synonym %q collides with an existing term", s)
		}
	}

	term := domain.Term{
		Name:        name,
		Synonyms:    append([]string(nil), synonyms...),
		Description: description,
	}
	pos := len(g.terms)
	g.terms = append(g.terms, term)
	g.index[key] = pos
	for _, s := range synonyms {
		if k := domain.NormalizeKey(s); k != "" {
			g.index[k] = pos
		}
	}
	return term, nil
}

// Freeze forbids further mutation.
func (g *Glossary) Freeze() {
	g.frozen = true
}

// Lookup finds a term by name or synonym.
func (g *Glossary) Lookup(name string) (domain.Term, bool) {
	pos, ok := g.index[domain.NormalizeKey(name)]
	if !ok {
		return domain.Term{}, false
	}
	return g.terms[pos], true
}

// All returns the terms in declaration order.
func (g *Glossary) All() []domain.Term {
	return append([]domain.Term(nil), g.terms...)
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	return len(g.terms)
}

// Relevant returns the terms mentioned in any of the texts, in declaration order.
func Relevant(terms []domain.Term, texts ...string) []domain.Term {
	var out []domain.Term
	for _, t := range terms {
		for _, text := range texts {
			if t.Matches(text) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
