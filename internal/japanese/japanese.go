// Package japanese wraps the kagome morphological analyzer with the few
// text helpers the parser and the learning read-model need.
package japanese

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Word is one content word found by the analyzer.
type Word struct {
	Surface  string
	BaseForm string
	// Reading is the katakana pronunciation reported by the dictionary.
	Reading string
	POS     string
}

// Content-word length bounds, in runes.
const (
	MinWordLen = 2
	MaxWordLen = 6
)

var contentPOS = map[string]bool{
	"名詞":  true,
	"動詞":  true,
	"形容詞": true,
	"副詞":  true,
}

// Analyzer handles text segmentation. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance backed by the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

var (
	defaultOnce     sync.Once
	defaultAnalyzer *Analyzer
	defaultErr      error
)

// Default returns a process-wide analyzer, building it on first use.
func Default() (*Analyzer, error) {
	defaultOnce.Do(func() {
		defaultAnalyzer, defaultErr = NewAnalyzer()
	})
	return defaultAnalyzer, defaultErr
}

// ContentWords returns the distinct nouns, verbs, adjectives and adverbs of
// text whose dictionary form is MinWordLen..MaxWordLen runes long, in order
// of first appearance.
func (a *Analyzer) ContentWords(text string) []Word {
	var (
		out  []Word
		seen = make(map[string]bool)
	)
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		f := tok.Features()
		if len(f) == 0 || !contentPOS[f[0]] {
			continue
		}
		// 非自立 / 接尾 nouns and verbs are grammatical glue, not vocabulary.
		if len(f) > 1 && (f[1] == "非自立" || f[1] == "接尾" || f[1] == "数") {
			continue
		}

		base := tok.Surface
		if len(f) > 6 && f[6] != "*" {
			base = f[6]
		}
		n := utf8.RuneCountInString(base)
		if n < MinWordLen || n > MaxWordLen || !ContainsJapanese(base) || seen[base] {
			continue
		}
		seen[base] = true

		reading := ""
		if len(f) > 7 && f[7] != "*" {
			reading = f[7]
		}
		out = append(out, Word{Surface: tok.Surface, BaseForm: base, Reading: reading, POS: f[0]})
	}
	return out
}

// Reading returns the hiragana reading of text. Tokens without a dictionary
// reading contribute their surface form.
func (a *Analyzer) Reading(text string) string {
	var b strings.Builder
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if r, ok := tok.Reading(); ok && r != "*" {
			b.WriteString(r)
			continue
		}
		b.WriteString(tok.Surface)
	}
	return ToHiragana(b.String())
}

// IsJapanese reports whether r is a kanji, kana or the prolonged sound mark.
func IsJapanese(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		r == 'ー'
}

// ContainsJapanese reports whether s has at least one Japanese script character.
func ContainsJapanese(s string) bool {
	for _, r := range s {
		if IsJapanese(r) {
			return true
		}
	}
	return false
}

// IsKana reports whether s is non-empty and consists only of kana.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.Is(unicode.Hiragana, r) && !unicode.Is(unicode.Katakana, r) && r != 'ー' {
			return false
		}
	}
	return true
}

// ToHiragana folds full-width katakana into hiragana, leaving everything else alone.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - ('ァ' - 'ぁ')
		}
		return r
	}, s)
}
