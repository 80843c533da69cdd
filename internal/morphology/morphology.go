// Package morphology turns a single lowercase word into its normal form(s)
// and a coarse part-of-speech tag.
package morphology

import (
	"errors"
	"fmt"

	"github.com/kljensen/snowball"
)

// ErrUnsupportedWord is returned for words containing symbols the
// dictionary does not cover.
var ErrUnsupportedWord = errors.New("unsupported word")

// PartOfSpeech is the coarse tag used to detect function words.
type PartOfSpeech int

const (
	Other PartOfSpeech = iota
	Preposition
	Conjunction
	Interjection
	Pronoun
	Particle
)

func (p PartOfSpeech) String() string {
	switch p {
	case Preposition:
		return "PREP"
	case Conjunction:
		return "CONJ"
	case Interjection:
		return "INTJ"
	case Pronoun:
		return "PRON"
	case Particle:
		return "PART"
	default:
		return "OTHER"
	}
}

// IsFunctionWord reports whether words of this part carry no search value.
func (p PartOfSpeech) IsFunctionWord() bool {
	return p != Other
}

// Analysis is the dictionary answer for one word.
type Analysis struct {
	NormalForms []string
	Part        PartOfSpeech
}

// Analyzer is the morphology capability consumed by the lemmatizer.
type Analyzer interface {
	Analyze(word string) (Analysis, error)
}

// Russian analyzes Cyrillic words with the Snowball Russian stemmer and a
// closed-class word table.
type Russian struct {
	functionWords map[string]PartOfSpeech
}

var _ Analyzer = (*Russian)(nil)

func NewRussian() *Russian {
	return &Russian{functionWords: russianFunctionWords()}
}

// Analyze expects a lowercase word. Words with any non-Cyrillic rune are
// rejected with ErrUnsupportedWord.
func (r *Russian) Analyze(word string) (Analysis, error) {
	if word == "" {
		return Analysis{}, fmt.Errorf("%w: empty", ErrUnsupportedWord)
	}
	for _, c := range word {
		if !isCyrillic(c) {
			return Analysis{}, fmt.Errorf("%w: %q", ErrUnsupportedWord, word)
		}
	}

	stem, err := snowball.Stem(word, "russian", true)
	if err != nil {
		return Analysis{}, fmt.Errorf("stemming %q: %w", word, err)
	}
	if stem == "" {
		stem = word
	}

	return Analysis{
		NormalForms: []string{stem},
		Part:        r.functionWords[word],
	}, nil
}

func isCyrillic(c rune) bool {
	return (c >= 'а' && c <= 'я') || c == 'ё'
}
