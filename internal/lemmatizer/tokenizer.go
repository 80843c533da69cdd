package lemmatizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// symbolsRe matches everything replaced by whitespace before splitting:
// punctuation, digits and typographic symbols.
var symbolsRe = regexp.MustCompile(`[\p{P}\p{S}\p{N}№©◄«»—@…-]+`)

type Tokenizer struct {
	minLength int
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{minLength: 4}
}

// Tokenize lowercases text, strips symbols and splits it on whitespace runs.
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.Fields(t.normalize(text))
}

// IsTooShort reports whether a token falls under the minimum length,
// counted in characters rather than bytes.
func (t *Tokenizer) IsTooShort(token string) bool {
	return utf8.RuneCountInString(token) < t.minLength
}

func (t *Tokenizer) normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return symbolsRe.ReplaceAllString(text, " ")
}
