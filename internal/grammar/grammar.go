// Package grammar classifies structure labels and splits grammar
// explanations into atomic grammar points.
package grammar

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// FailedStructure is the label the parser emits when no structure could be read.
const FailedStructure = "无法解析"

// Grammar point length bounds (exclusive), in runes.
const (
	minPointLen = 2
	maxPointLen = 100
)

var (
	structureMarkers = []string{"は", "が", "を", "主语", "主题", "宾语", "主語", "目的語"}
	grammarMarkers   = []string{"形", "动词", "名词", "動詞", "名詞"}
	analysisMarkers  = []string{"修饰", "连接", "表示", "修飾", "接続"}
)

// Classify derives the category of a structure label. Particle and
// subject/topic/object markers win over form/verb/noun markers, which win
// over modifier/connector markers.
func Classify(label string) domain.Category {
	switch {
	case containsAny(label, structureMarkers):
		return domain.CategorySentenceStructure
	case containsAny(label, grammarMarkers):
		return domain.CategoryGrammarPoint
	case containsAny(label, analysisMarkers):
		return domain.CategoryAnalysisPoint
	default:
		return domain.CategorySentenceStructure
	}
}

// DifficultyOf is a pure function of the label's rune length.
func DifficultyOf(label string) domain.Difficulty {
	switch n := utf8.RuneCountInString(label); {
	case n <= 10:
		return domain.DifficultyBasic
	case n <= 25:
		return domain.DifficultyIntermediate
	default:
		return domain.DifficultyAdvanced
	}
}

// IsUsableStructure reports whether a sentence's structure label should be aggregated.
func IsUsableStructure(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || label == FailedStructure {
		return false
	}
	return utf8.RuneCountInString(label) > minPointLen
}

var (
	pointSeparators = regexp.MustCompile(`[。！？!?\n]+|[•●▪◆]`)
	pointPrefix     = regexp.MustCompile(`^(?:[-*・]+|\d+[.、)）]|[①-⑳])\s*`)
)

// ExtractPoints splits a grammar explanation on sentence-final punctuation,
// newlines and bullets, keeping distinct fragments of 3..99 runes.
func ExtractPoints(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, frag := range pointSeparators.Split(text, -1) {
		frag = strings.TrimSpace(frag)
		frag = strings.TrimSpace(pointPrefix.ReplaceAllString(frag, ""))
		n := utf8.RuneCountInString(frag)
		if n <= minPointLen || n >= maxPointLen || seen[frag] {
			continue
		}
		seen[frag] = true
		out = append(out, frag)
	}
	return out
}

// Point is one structure-collection key derived from a sentence.
type Point struct {
	Key        string
	Category   domain.Category
	Difficulty domain.Difficulty
}

// PointsOf returns the structure keys contributed by one sentence: its
// structure label (when usable) followed by its grammar points. Grammar
// points are always categorised as grammar_point.
func PointsOf(s domain.SentenceAnnotation) []Point {
	var out []Point
	seen := make(map[string]bool)

	if label := strings.TrimSpace(s.Structure); IsUsableStructure(label) {
		seen[label] = true
		out = append(out, Point{Key: label, Category: Classify(label), Difficulty: DifficultyOf(label)})
	}
	for _, p := range ExtractPoints(s.Grammar) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, Point{Key: p, Category: domain.CategoryGrammarPoint, Difficulty: DifficultyOf(p)})
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
