package parser

import (
	"regexp"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

const (
	markerTitle       = "【文章标题】"
	markerFullText    = "【完整原文】"
	markerOriginal    = "【日文原文】"
	markerRomaji      = "【罗马音】"
	markerTranslation = "【中文翻译】"
	markerStructure   = "【句子结构】"
	markerAnalysis    = "【结构分析】"
	markerGrammar     = "【语法点说明】"
	markerVocabulary  = "【词汇解析表】"
)

var (
	cardMarker     = regexp.MustCompile(`📘\s*(?:第\s*\d+\s*句|[Ss]entence\s*\d+)`)
	sentenceNumber = regexp.MustCompile(`第\s*\d+\s*句|[Ss]entence\s*\d+`)
	originalMarker = regexp.MustCompile(regexp.QuoteMeta(markerOriginal))

	// Punctuation and markdown left between a marker and its value.
	leadingDebris = regexp.MustCompile(`^[\s:：*】\]）)]+`)
)

// Confirmation prompts the AI appends when it truncates long answers.
var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^.*(?:内容较长|内容过长|篇幅较长|篇幅过长).*$\n?`),
	regexp.MustCompile(`(?m)^.*是否(?:需要)?(?:继续|接着).*$\n?`),
	regexp.MustCompile(`(?m)^.*回复[「“"']?继续[」”"']?.*$\n?`),
	regexp.MustCompile(`(?mi)^.*(?:shall i continue|would you like me to continue|continue\?).*$\n?`),
}

func stripArtifacts(text string) string {
	for _, re := range artifactPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// between returns the trimmed text after start up to end. An empty end
// means the next 【-bracketed marker or the end of the line, whichever
// comes first.
func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := leadingDebris.ReplaceAllString(s[i+len(start):], "")

	var j int
	if end == "" {
		j = strings.IndexAny(rest, "【\n")
	} else {
		j = strings.Index(rest, end)
	}
	if j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// block returns the possibly multi-line text after marker up to the next 【 marker.
func block(s, marker string) string {
	return between(s, marker, "【")
}

func hasSentenceMarker(s string) bool {
	return cardMarker.MatchString(s) ||
		sentenceNumber.MatchString(s) ||
		strings.Contains(s, markerOriginal)
}

func isPreamble(s string) bool {
	return strings.Contains(s, markerTitle) || strings.Contains(s, markerFullText)
}

// firstSentenceMarker returns the byte offset of the first card or
// original-text marker in s, or -1.
func firstSentenceMarker(s string) int {
	idx := strings.Index(s, markerOriginal)
	if loc := cardMarker.FindStringIndex(s); loc != nil && (idx < 0 || loc[0] < idx) {
		idx = loc[0]
	}
	return idx
}

// firstJapaneseLine returns the first line that carries Japanese text once
// sentence numbering is removed. Marker lines are skipped.
func firstJapaneseLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = cardMarker.ReplaceAllString(line, "")
		line = sentenceNumber.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "📘#*-:："))
		if line == "" || strings.HasPrefix(line, "【") {
			continue
		}
		if japanese.ContainsJapanese(line) {
			return line
		}
	}
	return ""
}
