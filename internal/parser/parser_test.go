package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

const separatedBlob = `【文章标题】日常会话
【完整原文】私は学生です。毎日学校へ行きます。

---

📘 第1句
【日文原文】私は学生です。
【罗马音】watashi wa gakusei desu.
【中文翻译】我是学生。
【句子结构】主语 + は + 名词 + です
【结构分析】
「私」是主语，「は」提示主题。
【语法点说明】
• ～は～です 表示判断
【词汇解析表】
单词｜罗马音｜中文
私｜watashi｜我
学生｜gakusei｜学生

---

📘 第2句
【日文原文】毎日学校へ行きます。
【罗马音】mainichi gakkou e ikimasu.
【中文翻译】每天去学校。
【句子结构】时间 + 名词 + へ + 动词
【词汇解析表】
毎日｜mainichi｜每天
学校｜gakkou｜学校
行く｜iku｜去
`

func guessed(word, romaji, meaning string) domain.VocabEntry {
	return domain.VocabEntry{Word: word, Romanization: romaji, Meaning: meaning, Guessed: true}
}

func TestParse_SeparatedCards(t *testing.T) {
	t.Parallel()

	got := New(nil).Parse(separatedBlob)

	want := Result{
		Title: "日常会话",
		Sentences: []domain.SentenceAnnotation{
			{
				OriginalText: "私は学生です。",
				Romaji:       "watashi wa gakusei desu.",
				Translation:  "我是学生。",
				Structure:    "主语 + は + 名词 + です",
				Analysis:     "「私」是主语，「は」提示主题。",
				Grammar:      "• ～は～です 表示判断",
				Vocabulary: []domain.VocabEntry{
					{Word: "私", Romanization: "watashi", Meaning: "我"},
					{Word: "学生", Romanization: "gakusei", Meaning: "学生"},
				},
			},
			{
				OriginalText: "毎日学校へ行きます。",
				Romaji:       "mainichi gakkou e ikimasu.",
				Translation:  "每天去学校。",
				Structure:    "时间 + 名词 + へ + 动词",
				Vocabulary: []domain.VocabEntry{
					{Word: "毎日", Romanization: "mainichi", Meaning: "每天"},
					{Word: "学校", Romanization: "gakkou", Meaning: "学校"},
					{Word: "行く", Romanization: "iku", Meaning: "去"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CardMarkersDedupAndArtifacts(t *testing.T) {
	t.Parallel()

	blob := `📘 第1句
【日文原文】猫が好きです。
【中文翻译】我喜欢猫。
📘 第2句
【日文原文】猫が好きです。
【中文翻译】我喜欢猫。
📘 第3句
【日文原文】犬も好きです。
【中文翻译】我也喜欢狗。
内容较长，是否继续？`

	got := New(nil).Parse(blob)

	want := Result{
		Sentences: []domain.SentenceAnnotation{
			{
				OriginalText: "猫が好きです。",
				Translation:  "我喜欢猫。",
				Vocabulary:   []domain.VocabEntry{guessed("好き", "suki", "喜欢")},
			},
			{
				OriginalText: "犬も好きです。",
				Translation:  "我也喜欢狗。",
				Vocabulary:   []domain.VocabEntry{guessed("好き", "suki", "喜欢")},
			},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_LooseLabelsUseLineParser(t *testing.T) {
	t.Parallel()

	blob := `第1句
原文：猫が好きです。
翻译：我喜欢猫。
语法：
～が好き 表示喜好
第2句
原文：犬も好きです。
翻译：我也喜欢狗。`

	got := New(nil).Parse(blob)

	want := []domain.SentenceAnnotation{
		{
			OriginalText: "猫が好きです。",
			Translation:  "我喜欢猫。",
			Grammar:      "～が好き 表示喜好",
			Vocabulary:   []domain.VocabEntry{guessed("好き", "suki", "喜欢")},
		},
		{
			OriginalText: "犬も好きです。",
			Translation:  "我也喜欢狗。",
			Vocabulary:   []domain.VocabEntry{guessed("好き", "suki", "喜欢")},
		},
	}
	if diff := cmp.Diff(want, got.Sentences, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SecondOriginalMarkerTruncatesSection(t *testing.T) {
	t.Parallel()

	blob := "📘 第1句\n【日文原文】私は学生です。\n【中文翻译】我是学生。\n【日文原文】毎日学校へ行きます。\n" +
		"📘 第2句\n【日文原文】犬も好きです。"

	got := New(nil).Parse(blob)

	require.Len(t, got.Sentences, 2)
	assert.Equal(t, "私は学生です。", got.Sentences[0].OriginalText)
	assert.Equal(t, "我是学生。", got.Sentences[0].Translation)
	assert.Equal(t, "犬も好きです。", got.Sentences[1].OriginalText)
}

func TestParse_ReducedExtraction(t *testing.T) {
	t.Parallel()

	blob := "今日は天気がいいですね。\nThis sentence is about the weather and it is used as a greeting in daily life."

	got := New(nil).Parse(blob)

	want := []domain.SentenceAnnotation{{
		OriginalText: "今日は天気がいいですね。",
		Analysis:     "This sentence is about the weather and it is used as a greeting in daily life.",
		Vocabulary: []domain.VocabEntry{
			guessed("今日", "kyou", "今天"),
			guessed("天気", "tenki", "天气"),
		},
	}}
	if diff := cmp.Diff(want, got.Sentences, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DegradesToSingleSentence(t *testing.T) {
	t.Parallel()

	got := New(nil).Parse("こんにちは")

	require.Len(t, got.Sentences, 1)
	s := got.Sentences[0]
	assert.Equal(t, "こんにちは", s.OriginalText)
	assert.Equal(t, "こんにちは", s.Analysis)
	assert.Equal(t, placeholderVocabulary(), s.Vocabulary)
	for _, v := range s.Vocabulary {
		assert.True(t, v.Guessed)
	}
}

func TestParse_NoJapanese(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"latin only", "hello world"},
		{"only artifact", "内容较长，是否继续？"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New(nil).Parse(tt.in)
			assert.Empty(t, got.Title)
			assert.NotNil(t, got.Sentences)
			assert.Empty(t, got.Sentences)
		})
	}
}

func TestParseVocabRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want domain.VocabEntry
		ok   bool
	}{
		{"fullwidth pipes", "食べる｜taberu｜吃", domain.VocabEntry{Word: "食べる", Romanization: "taberu", Meaning: "吃"}, true},
		{"markdown row", "| 食べる | taberu | 吃 |", domain.VocabEntry{Word: "食べる", Romanization: "taberu", Meaning: "吃"}, true},
		{"numbered", "1. 食べる｜taberu｜吃", domain.VocabEntry{Word: "食べる", Romanization: "taberu", Meaning: "吃"}, true},
		{"reading column", "食べる｜たべる｜taberu｜吃", domain.VocabEntry{Word: "食べる", Romanization: "taberu", Meaning: "吃"}, true},
		{"header", "单词｜罗马音｜中文", domain.VocabEntry{}, false},
		{"markdown rule", "|---|---|---|", domain.VocabEntry{}, false},
		{"missing romanization", "食べる｜｜吃", domain.VocabEntry{}, false},
		{"two columns", "食べる｜taberu", domain.VocabEntry{}, false},
		{"blank", "   ", domain.VocabEntry{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseVocabRow(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGuess_PrefersLongestMatch(t *testing.T) {
	t.Parallel()

	got := New(nil).guess("私は毎日日本語を勉強します。")

	assert.Equal(t, []domain.VocabEntry{
		guessed("毎日", "mainichi", "每天"),
		guessed("日本語", "nihongo", "日语"),
		guessed("勉強", "benkyou", "学习"),
	}, got)
}

func TestGuess_WithAnalyzer(t *testing.T) {
	t.Parallel()

	a, err := japanese.Default()
	require.NoError(t, err)

	got := New(a).guess("私は毎日日本語を勉強します。")

	var words []string
	for _, v := range got {
		assert.True(t, v.Guessed)
		words = append(words, v.Word)
	}
	assert.Contains(t, words, "毎日")
	assert.Contains(t, words, "勉強")
}

type stubFinder struct{ words []japanese.Word }

func (s stubFinder) ContentWords(string) []japanese.Word { return s.words }

func TestGuess_FinderWithoutGlossFallsBackToScan(t *testing.T) {
	t.Parallel()

	p := New(stubFinder{words: []japanese.Word{{Surface: "ふわふわ", BaseForm: "ふわふわ"}}})

	assert.Equal(t, []domain.VocabEntry{guessed("学校", "gakkou", "学校")}, p.guess("ふわふわの学校"))
	assert.Equal(t, placeholderVocabulary(), p.guess("ふわふわ"))
}
