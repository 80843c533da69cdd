package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
	"github.com/deidaraiorek/sitesearch/internal/morphology"
)

func newTestMatcher(query string) *matcher {
	lem := lemmatizer.New(morphology.NewRussian())
	return newMatcher(lem, query, lem.Lemmas(query))
}

func TestSnippetWindow(t *testing.T) {
	m := newTestMatcher("рыба")
	text := strings.Repeat("вода ", 40) + "поймали рыбу вечером " + strings.Repeat("берег ", 40)

	got := m.snippet(text)

	assert.True(t, strings.HasPrefix(got, "..."), got)
	assert.True(t, strings.HasSuffix(got, "..."), got)
	assert.Contains(t, got, "поймали <b>рыбу</b> вечером")
	assert.Less(t, utf8.RuneCountInString(got), 2*snippetRadius+40)
}

func TestSnippetBoldsEveryHit(t *testing.T) {
	m := newTestMatcher("Рыба")

	got := m.snippet("Рыба, рыбы и ещё раз РЫБА.")

	assert.Equal(t, "<b>Рыба</b>, <b>рыбы</b> и ещё раз <b>РЫБА</b>.", got)
}

func TestSnippetFallback(t *testing.T) {
	m := newTestMatcher("космос")
	text := strings.Repeat("я", 200)

	got := m.snippet(text)

	assert.Equal(t, strings.Repeat("я", snippetFallback)+"...", got)
	assert.Equal(t, "коротко", m.snippet("коротко"))
}

func TestSnippetEscapesMarkup(t *testing.T) {
	m := newTestMatcher("рыба")

	assert.Equal(t, "a &lt; b <b>рыба</b>", m.snippet("a < b рыба"))
}
