package parser

import (
	"sort"
	"unicode/utf8"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

type gloss struct {
	word    string
	romaji  string
	meaning string
}

func (g gloss) entry() domain.VocabEntry {
	return domain.VocabEntry{Word: g.word, Romanization: g.romaji, Meaning: g.meaning, Guessed: true}
}

// Common words the guesser can gloss without the AI vocabulary table.
var glossary = []gloss{
	{"日本語", "nihongo", "日语"},
	{"日本", "nihon", "日本"},
	{"毎日", "mainichi", "每天"},
	{"今日", "kyou", "今天"},
	{"明日", "ashita", "明天"},
	{"昨日", "kinou", "昨天"},
	{"時間", "jikan", "时间"},
	{"学校", "gakkou", "学校"},
	{"学生", "gakusei", "学生"},
	{"先生", "sensei", "老师"},
	{"友達", "tomodachi", "朋友"},
	{"家族", "kazoku", "家人"},
	{"会社", "kaisha", "公司"},
	{"仕事", "shigoto", "工作"},
	{"勉強", "benkyou", "学习"},
	{"言葉", "kotoba", "词语"},
	{"天気", "tenki", "天气"},
	{"電車", "densha", "电车"},
	{"映画", "eiga", "电影"},
	{"音楽", "ongaku", "音乐"},
	{"料理", "ryouri", "料理"},
	{"食べる", "taberu", "吃"},
	{"飲む", "nomu", "喝"},
	{"行く", "iku", "去"},
	{"来る", "kuru", "来"},
	{"見る", "miru", "看"},
	{"聞く", "kiku", "听"},
	{"話す", "hanasu", "说"},
	{"読む", "yomu", "读"},
	{"書く", "kaku", "写"},
	{"分かる", "wakaru", "明白"},
	{"好き", "suki", "喜欢"},
	{"大好き", "daisuki", "非常喜欢"},
	{"大切", "taisetsu", "重要"},
	{"元気", "genki", "精神"},
	{"綺麗", "kirei", "漂亮"},
	{"楽しい", "tanoshii", "快乐"},
	{"難しい", "muzukashii", "难"},
	{"新しい", "atarashii", "新的"},
	{"ありがとう", "arigatou", "谢谢"},
}

// Returned when the guesser recognises nothing.
var placeholders = []gloss{
	{"日本語", "nihongo", "日语"},
	{"勉強", "benkyou", "学习"},
	{"言葉", "kotoba", "词语"},
}

var (
	glossIndex      = make(map[string]gloss, len(glossary))
	glossesByLength []gloss
)

func init() {
	for _, g := range glossary {
		glossIndex[g.word] = g
	}
	glossesByLength = append([]gloss(nil), glossary...)
	sort.SliceStable(glossesByLength, func(i, j int) bool {
		return utf8.RuneCountInString(glossesByLength[i].word) > utf8.RuneCountInString(glossesByLength[j].word)
	})
}

func lookupGloss(word string) (gloss, bool) {
	g, ok := glossIndex[word]
	return g, ok
}
