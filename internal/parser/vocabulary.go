package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

// maxGuessed bounds the number of words the guesser attaches to one sentence.
const maxGuessed = 5

var (
	cellSplit = regexp.MustCompile(`[｜|]`)
	tableRule = regexp.MustCompile(`^[\s|｜:：\-—]+$`)
	rowPrefix = regexp.MustCompile(`^(?:[-*・•]+|\d+[.、)）])\s*`)
	asciiOnly = regexp.MustCompile(`^[\x20-\x7e]+$`)
)

var tableHeaders = map[string]bool{
	"单词": true, "词汇": true, "词语": true, "日语": true, "日文": true, "word": true,
	"罗马音": true, "读音": true, "假名": true, "romaji": true, "romanization": true,
}

// vocabulary reads the section's vocabulary table, falling back to the
// guesser when the table is missing or has no valid rows.
func (p *Parser) vocabulary(sec string, texts ...string) []domain.VocabEntry {
	if entries := parseVocabLines(strings.Split(block(sec, markerVocabulary), "\n")); len(entries) > 0 {
		return entries
	}
	return p.guess(texts...)
}

func parseVocabLines(lines []string) []domain.VocabEntry {
	var out []domain.VocabEntry
	seen := make(map[string]bool)
	for _, line := range lines {
		e, ok := parseVocabRow(line)
		if !ok || seen[e.Word] {
			continue
		}
		seen[e.Word] = true
		out = append(out, e)
	}
	return out
}

// parseVocabRow parses one word｜romanization｜meaning line. Markdown table
// pipes and a reading column between word and romanization are tolerated.
func parseVocabRow(line string) (domain.VocabEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || tableRule.MatchString(line) {
		return domain.VocabEntry{}, false
	}

	var cells []string
	for _, c := range cellSplit.Split(line, -1) {
		if c = strings.Trim(strings.TrimSpace(c), "*"); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) < 3 {
		return domain.VocabEntry{}, false
	}

	word := strings.TrimSpace(rowPrefix.ReplaceAllString(cells[0], ""))
	if tableHeaders[strings.ToLower(word)] || tableHeaders[strings.ToLower(cells[1])] {
		return domain.VocabEntry{}, false
	}

	e := domain.VocabEntry{Word: word, Romanization: cells[1], Meaning: cells[2]}
	if len(cells) >= 4 && japanese.IsKana(cells[1]) && asciiOnly.MatchString(cells[2]) {
		e.Romanization, e.Meaning = cells[2], cells[3]
	}
	return e, e.IsComplete()
}

// guess produces vocabulary for sentences whose analysis has no usable
// table. Every entry is flagged Guessed. When nothing in the texts is
// recognised a fixed placeholder set is returned, so the result is never empty.
func (p *Parser) guess(texts ...string) []domain.VocabEntry {
	text := strings.Join(texts, "\n")

	var out []domain.VocabEntry
	if p.words != nil {
		out = guessFromWords(p.words.ContentWords(text))
	}
	if len(out) == 0 {
		out = guessFromText(text)
	}
	if len(out) == 0 {
		out = placeholderVocabulary()
	}
	return out
}

func guessFromWords(words []japanese.Word) []domain.VocabEntry {
	var out []domain.VocabEntry
	seen := make(map[string]bool)
	for _, w := range words {
		g, ok := lookupGloss(w.BaseForm)
		if !ok {
			g, ok = lookupGloss(w.Surface)
		}
		if !ok || seen[g.word] {
			continue
		}
		seen[g.word] = true
		out = append(out, g.entry())
		if len(out) == maxGuessed {
			break
		}
	}
	return out
}

// guessFromText scans for dictionary words, preferring the longest match
// where two overlap, and returns them in text order.
func guessFromText(text string) []domain.VocabEntry {
	type hit struct {
		at int
		g  gloss
	}
	var (
		hits    []hit
		covered [][2]int
	)
	for _, g := range glossesByLength {
		at := strings.Index(text, g.word)
		if at < 0 {
			continue
		}
		end := at + len(g.word)
		overlaps := false
		for _, c := range covered {
			if at < c[1] && c[0] < end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		covered = append(covered, [2]int{at, end})
		hits = append(hits, hit{at: at, g: g})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	if len(hits) > maxGuessed {
		hits = hits[:maxGuessed]
	}

	out := make([]domain.VocabEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.g.entry())
	}
	return out
}

func placeholderVocabulary() []domain.VocabEntry {
	out := make([]domain.VocabEntry, 0, len(placeholders))
	for _, g := range placeholders {
		out = append(out, g.entry())
	}
	return out
}
