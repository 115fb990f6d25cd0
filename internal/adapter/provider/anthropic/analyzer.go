// Package anthropic produces sentence-by-sentence analyses of Japanese text
// with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty analysis response")

// Config configures the analyzer.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string
}

// Analyzer asks the model for a marked-up analysis of a Japanese text.
type Analyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// New creates an Analyzer.
func New(cfg Config, log *slog.Logger) *Analyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Analyzer{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log.With("adapter", "anthropic"),
	}
}

// Analyze returns the raw analysis text for the given Japanese text. The
// answer follows the card format read by the response parser; it is not
// validated here.
func (a *Analyzer) Analyze(ctx context.Context, text string) (string, error) {
	start := time.Now()

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("analysis api call: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}

	a.log.InfoContext(ctx, "analysis received",
		slog.Int("input_runes", len([]rune(text))),
		slog.Int("output_runes", len([]rune(out))),
		slog.String("stop_reason", string(msg.StopReason)),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

const systemPrompt = `你是一名日语老师。请逐句分析用户给出的日语文章，严格按照以下格式输出，不要省略任何标记：

【文章标题】<为文章起一个简短的标题>

📘 第1句
【日文原文】<原句>
【罗马音】<整句罗马音>
【中文翻译】<中文翻译>
【句子结构】<句型，例如：名词 + は + 形容词 + です>
【结构分析】<逐段说明句子成分>
【语法点说明】
1. <语法点一>
2. <语法点二>
【词汇解析表】
单词｜罗马音｜中文意思
<单词>｜<romaji>｜<意思>

---

对每一句重复上述格式，句与句之间用 --- 分隔。不要询问是否继续，一次输出全部句子。`
