package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// Sections without markers longer than this get a reduced extraction.
const reducedMinLen = 50

var separatorLine = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)

// splitSections tries, in order, a --- separator line, card markers and
// original-text markers, falling back to the whole text as one section.
// A strategy is accepted when it yields more than one non-blank section.
func splitSections(text string) []string {
	if strings.Contains(text, "---") {
		if secs := nonBlank(separatorLine.Split(text, -1)); len(secs) > 1 {
			return secs
		}
	}
	if secs := nonBlank(splitBefore(text, cardMarker.FindAllStringIndex(text, -1))); len(secs) > 1 {
		return secs
	}
	if secs := nonBlank(splitBefore(text, originalMarker.FindAllStringIndex(text, -1))); len(secs) > 1 {
		return secs
	}
	return []string{text}
}

// splitBefore cuts text at the start of every match location, keeping the
// text before the first match as its own section.
func splitBefore(text string, locs [][]int) []string {
	if len(locs) == 0 {
		return []string{text}
	}
	out := make([]string, 0, len(locs)+1)
	out = append(out, text[:locs[0][0]])
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, text[loc[0]:end])
	}
	return out
}

func nonBlank(secs []string) []string {
	var out []string
	for _, s := range secs {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *Parser) parseSections(sections []string) []domain.SentenceAnnotation {
	out := make([]domain.SentenceAnnotation, 0, len(sections))
	seen := make(map[string]bool)

	for _, sec := range sections {
		sec = strings.TrimSpace(sec)
		if sec == "" {
			continue
		}
		if isPreamble(sec) {
			i := firstSentenceMarker(sec)
			if i < 0 {
				continue
			}
			sec = sec[i:]
		}

		s, ok := p.parseSection(sec)
		if !ok || seen[s.OriginalText] {
			continue
		}
		seen[s.OriginalText] = true
		out = append(out, s)
	}
	return out
}

func (p *Parser) parseSection(sec string) (domain.SentenceAnnotation, bool) {
	if hasSentenceMarker(sec) {
		return p.parseMarked(sec)
	}
	if utf8.RuneCountInString(sec) > reducedMinLen {
		return p.parseReduced(sec)
	}
	return domain.SentenceAnnotation{}, false
}

func (p *Parser) parseMarked(sec string) (domain.SentenceAnnotation, bool) {
	// A second original-text marker means the AI ran two sentences together.
	if locs := originalMarker.FindAllStringIndex(sec, 2); len(locs) > 1 {
		sec = sec[:locs[1][0]]
	}

	s := domain.SentenceAnnotation{
		OriginalText: between(sec, markerOriginal, ""),
		Romaji:       between(sec, markerRomaji, ""),
		Translation:  between(sec, markerTranslation, ""),
		Structure:    between(sec, markerStructure, ""),
		Analysis:     block(sec, markerAnalysis),
		Grammar:      block(sec, markerGrammar),
	}
	if s.OriginalText == "" {
		s.OriginalText = firstJapaneseLine(sec)
	}
	if s.OriginalText == "" {
		return domain.SentenceAnnotation{}, false
	}
	s.Vocabulary = p.vocabulary(sec, s.OriginalText)
	return s, true
}

func (p *Parser) parseReduced(sec string) (domain.SentenceAnnotation, bool) {
	orig := firstJapaneseLine(sec)
	if orig == "" {
		return domain.SentenceAnnotation{}, false
	}

	analysis := sec
	if i := strings.Index(sec, orig); i >= 0 {
		analysis = sec[i+len(orig):]
	}
	return domain.SentenceAnnotation{
		OriginalText: orig,
		Analysis:     strings.TrimSpace(analysis),
		Vocabulary:   p.vocabulary(sec, orig),
	}, true
}
