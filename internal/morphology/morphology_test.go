package morphology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRussianNormalForms(t *testing.T) {
	r := NewRussian()

	tests := []struct {
		word string
		want string
	}{
		{"рыба", "рыб"},
		{"рыбы", "рыб"},
		{"пруду", "пруд"},
		{"пруд", "пруд"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			a, err := r.Analyze(tt.word)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, a.NormalForms)
			assert.Equal(t, Other, a.Part)
			assert.False(t, a.Part.IsFunctionWord())
		})
	}
}

func TestRussianFunctionWords(t *testing.T) {
	r := NewRussian()

	tests := []struct {
		word string
		part PartOfSpeech
	}{
		{"через", Preposition},
		{"между", Preposition},
		{"чтобы", Conjunction},
		{"если", Conjunction},
		{"которые", Pronoun},
		{"этот", Pronoun},
		{"даже", Particle},
		{"неужели", Particle},
		{"браво", Interjection},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			a, err := r.Analyze(tt.word)
			require.NoError(t, err)
			assert.Equal(t, tt.part, a.Part)
			assert.True(t, a.Part.IsFunctionWord())
		})
	}
}

func TestRussianRejectsForeignSymbols(t *testing.T) {
	r := NewRussian()

	for _, word := range []string{"", "fish", "рыбаfish", "x2"} {
		_, err := r.Analyze(word)
		assert.True(t, errors.Is(err, ErrUnsupportedWord), "word %q", word)
	}
}

func TestPartOfSpeechString(t *testing.T) {
	assert.Equal(t, "PREP", Preposition.String())
	assert.Equal(t, "PRON", Pronoun.String())
	assert.Equal(t, "OTHER", Other.String())
}
