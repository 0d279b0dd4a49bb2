package oracle

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// Lexical is an offline evaluator based on content-word overlap between the
// condition and the latest utterance. It needs no model, so it is the default of the
// CLI; its answers are only as good as the wording of the conditions.
type Lexical struct {
	// Threshold is the fraction of the condition's content words that must appear
	// in the utterance. Zero means 0.5.
	Threshold float64
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "of": true, "and": true, "or": true,
	"is": true, "are": true, "be": true, "for": true, "in": true, "on": true, "it": true,
	"that": true, "this": true, "their": true, "they": true, "them": true, "with": true,
	"patient": true, "customer": true, "user": true, "says": true, "asks": true, "i": true,
	"my": true, "me": true, "you": true, "your": true, "about": true, "do": true, "does": true,
	"not": true, "but": true, "it's": true, "there's": true, "e": true, "g": true, "ie": true,
}

func contentWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		f = stem(f)
		if f == "" || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func stem(w string) string {
	for _, suffix := range []string{"ing", "ed", "s"} {
		if len(w) > len(suffix)+2 && strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	return w
}

func (l Lexical) score(condition, utterance string) float64 {
	want := contentWords(condition)
	if len(want) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, w := range contentWords(utterance) {
		have[w] = true
	}
	hits := 0
	for _, w := range want {
		if have[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// Evaluate implements ConditionOracle.
func (l Lexical) Evaluate(ctx context.Context, condition string, oc Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	threshold := l.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}
	return l.score(condition, oc.Utterance) >= threshold, nil
}

// Rank implements Ranker by scoring each candidate's title, description and conditions.
// The ranking is resolved only when the best score is strictly ahead of the next.
func (l Lexical) Rank(ctx context.Context, req RankRequest) (Ranking, error) {
	if err := ctx.Err(); err != nil {
		return Ranking{}, err
	}
	type scored struct {
		id    string
		score float64
	}
	list := make([]scored, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		text := c.Title + " " + c.Description + " " + strings.Join(c.Conditions, " ")
		list = append(list, scored{id: c.ID, score: l.score(text, req.Context.Utterance)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	r := Ranking{}
	for _, s := range list {
		r.Order = append(r.Order, s.id)
	}
	r.Resolved = len(list) == 1 || (len(list) > 1 && list[0].score > list[1].score)
	return r, nil
}
