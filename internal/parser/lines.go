package parser

import (
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

type lineMode int

const (
	modeNone lineMode = iota
	modeAnalysis
	modeGrammar
	modeVocabulary
)

// lineSentence accumulates one sentence in the line-oriented parser.
type lineSentence struct {
	s        domain.SentenceAnnotation
	mode     lineMode
	analysis []string
	grammar  []string
	vocab    []string
}

// parseLines is the secondary parser for output that uses loose labels
// ("原文：", "翻译：") instead of bracketed markers. A new sentence starts at
// every "第N句" / "Sentence N" line.
func (p *Parser) parseLines(text string) []domain.SentenceAnnotation {
	var (
		out  []domain.SentenceAnnotation
		cur  *lineSentence
		seen = make(map[string]bool)
	)
	flush := func() {
		if cur == nil {
			return
		}
		if s, ok := p.finishLine(cur); ok && !seen[s.OriginalText] {
			seen[s.OriginalText] = true
			out = append(out, s)
		}
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := sentenceNumber.FindStringIndex(line); loc != nil {
			flush()
			cur = &lineSentence{}
			rest := strings.TrimSpace(leadingDebris.ReplaceAllString(line[loc[1]:], ""))
			if japanese.ContainsJapanese(rest) && !strings.Contains(rest, "【") {
				cur.s.OriginalText = rest
			}
			continue
		}
		if cur != nil {
			cur.feed(line)
		}
	}
	flush()
	return out
}

func (l *lineSentence) feed(line string) {
	switch {
	case hasLabel(line, "日文原文", "原文"):
		l.s.OriginalText, l.mode = afterLabel(line), modeNone
	case hasLabel(line, "罗马音", "罗马字"):
		l.s.Romaji, l.mode = afterLabel(line), modeNone
	case hasLabel(line, "中文翻译", "翻译", "译文"):
		l.s.Translation, l.mode = afterLabel(line), modeNone
	case hasLabel(line, "句子结构"):
		l.s.Structure, l.mode = afterLabel(line), modeNone
	case hasLabel(line, "结构分析", "分析"):
		l.mode = modeAnalysis
		l.analysis = appendNonEmpty(l.analysis, afterLabel(line))
	case hasLabel(line, "语法"):
		l.mode = modeGrammar
		l.grammar = appendNonEmpty(l.grammar, afterLabel(line))
	case hasLabel(line, "词汇"):
		l.mode = modeVocabulary
	default:
		switch l.mode {
		case modeAnalysis:
			l.analysis = append(l.analysis, line)
		case modeGrammar:
			l.grammar = append(l.grammar, line)
		case modeVocabulary:
			l.vocab = append(l.vocab, line)
		default:
			if l.s.OriginalText == "" && japanese.ContainsJapanese(line) {
				l.s.OriginalText = line
			}
		}
	}
}

func (p *Parser) finishLine(l *lineSentence) (domain.SentenceAnnotation, bool) {
	s := l.s
	s.OriginalText = strings.TrimSpace(s.OriginalText)
	if s.OriginalText == "" {
		return domain.SentenceAnnotation{}, false
	}
	s.Analysis = strings.Join(l.analysis, "\n")
	s.Grammar = strings.Join(l.grammar, "\n")
	s.Vocabulary = parseVocabLines(l.vocab)
	if len(s.Vocabulary) == 0 {
		s.Vocabulary = p.guess(s.OriginalText)
	}
	return s, true
}

func hasLabel(line string, labels ...string) bool {
	trimmed := strings.TrimLeft(line, "【*#-•· ")
	for _, l := range labels {
		if strings.HasPrefix(trimmed, l) {
			return true
		}
	}
	return false
}

// afterLabel returns the text after the first 】, ： or : of a labelled line.
func afterLabel(line string) string {
	at, width := -1, 0
	for _, sep := range []string{"】", "：", ":"} {
		if i := strings.Index(line, sep); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(sep)
		}
	}
	if at < 0 {
		return ""
	}
	return strings.TrimSpace(leadingDebris.ReplaceAllString(line[at+width:], ""))
}

func appendNonEmpty(dst []string, s string) []string {
	if s == "" {
		return dst
	}
	return append(dst, s)
}
