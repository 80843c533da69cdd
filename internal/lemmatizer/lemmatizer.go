// Package lemmatizer reduces free text to lemma occurrence counts.
package lemmatizer

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/deidaraiorek/sitesearch/internal/morphology"
)

type Lemmatizer struct {
	tokenizer *Tokenizer
	analyzer  morphology.Analyzer
}

func New(analyzer morphology.Analyzer) *Lemmatizer {
	return &Lemmatizer{
		tokenizer: NewTokenizer(),
		analyzer:  analyzer,
	}
}

// CollectLemmas returns every lemma found in text with its occurrence count.
// Function words, short tokens and tokens the analyzer cannot handle are
// skipped.
func (l *Lemmatizer) CollectLemmas(text string) map[string]int {
	lemmas := make(map[string]int)
	for _, token := range l.tokenizer.Tokenize(text) {
		for _, form := range l.WordLemmas(token) {
			lemmas[form]++
		}
	}
	return lemmas
}

// Lemmas returns the distinct lemmas of text in sorted order.
func (l *Lemmatizer) Lemmas(text string) []string {
	counts := l.CollectLemmas(text)
	out := make([]string, 0, len(counts))
	for lemma := range counts {
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out
}

// Tokens returns the normalized tokens of text without lemmatizing them.
func (l *Lemmatizer) Tokens(text string) []string {
	return l.tokenizer.Tokenize(text)
}

// WordLemmas returns the normal forms of a single lowercase token, or nil if
// the token is filtered out.
func (l *Lemmatizer) WordLemmas(token string) []string {
	if token == "" || l.tokenizer.IsTooShort(token) {
		return nil
	}
	a, err := l.analyzer.Analyze(token)
	if err != nil {
		log.Debug().Str("token", token).Err(err).Msg("morphology lookup failed")
		return nil
	}
	if a.Part.IsFunctionWord() {
		return nil
	}
	return a.NormalForms
}
