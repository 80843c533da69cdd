package search

import (
	"html"
	"strings"
	"unicode"

	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
)

const (
	snippetRadius   = 80
	snippetFallback = 150
	ellipsis        = "..."
)

type span struct {
	start, end int
}

// matcher decides whether a word of page text corresponds to the query,
// either literally or through a shared lemma.
type matcher struct {
	tokens     map[string]struct{}
	lemmas     map[string]struct{}
	lemmatizer *lemmatizer.Lemmatizer
}

func newMatcher(lem *lemmatizer.Lemmatizer, query string, lemmas []string) *matcher {
	m := &matcher{
		tokens:     make(map[string]struct{}),
		lemmas:     make(map[string]struct{}, len(lemmas)),
		lemmatizer: lem,
	}
	for _, l := range lemmas {
		m.lemmas[l] = struct{}{}
	}
	for _, tok := range lem.Tokens(query) {
		if len(lem.WordLemmas(tok)) > 0 {
			m.tokens[tok] = struct{}{}
		}
	}
	return m
}

func (m *matcher) matches(word string) bool {
	lower := strings.ToLower(word)
	if _, ok := m.tokens[lower]; ok {
		return true
	}
	for _, l := range m.lemmatizer.WordLemmas(lower) {
		if _, ok := m.lemmas[l]; ok {
			return true
		}
	}
	return false
}

func words(text []rune) []span {
	var out []span
	start := -1
	for i, r := range text {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			out = append(out, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, span{start, len(text)})
	}
	return out
}

// snippet cuts a window of text around the first word matching the query and
// wraps every matching word inside it in <b></b>. Text without a match
// yields its opening characters.
func (m *matcher) snippet(plain string) string {
	text := []rune(plain)

	var hits []span
	for _, w := range words(text) {
		if m.matches(string(text[w.start:w.end])) {
			hits = append(hits, w)
		}
	}

	if len(hits) == 0 {
		if len(text) <= snippetFallback {
			return html.EscapeString(plain)
		}
		return html.EscapeString(string(text[:snippetFallback])) + ellipsis
	}

	first := hits[0]
	start := max(0, first.start-snippetRadius)
	end := min(len(text), first.end+snippetRadius)
	start = alignStart(text, start, first.start)
	end = alignEnd(text, end, first.end)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(ellipsis)
	}
	pos := start
	for _, h := range hits {
		if h.start < start || h.end > end {
			continue
		}
		sb.WriteString(html.EscapeString(string(text[pos:h.start])))
		sb.WriteString("<b>")
		sb.WriteString(html.EscapeString(string(text[h.start:h.end])))
		sb.WriteString("</b>")
		pos = h.end
	}
	sb.WriteString(html.EscapeString(string(text[pos:end])))
	if end < len(text) {
		sb.WriteString(ellipsis)
	}
	return strings.TrimSpace(sb.String())
}

// alignStart moves start forward past a partial word, never beyond limit.
func alignStart(text []rune, start, limit int) int {
	if start == 0 {
		return 0
	}
	for i := start; i < limit; i++ {
		if unicode.IsSpace(text[i-1]) {
			return i
		}
	}
	return start
}

// alignEnd moves end back before a partial word, never before limit.
func alignEnd(text []rune, end, limit int) int {
	if end == len(text) {
		return end
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(text[i]) {
			return i
		}
	}
	return end
}
