// Package refine runs the admin-side oracle workflows: turning a
// manager's rough instruction into an agent-ready guideline, and
// distilling a reference document into a one-line usage context.
// Unlike the coaching pipeline these surface errors directly; an admin
// editing content wants to see the failure, not a padded fallback.
package refine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/llm"
)

const guidelinePrompt = `Rewrite the manager's instruction as a concise, unambiguous guide that a consultation agent can use immediately.
Strip every preamble, greeting, and piece of managerial advice; keep only the essentials.

[Input]
- Category: %s
- Manager instruction: "%s"

[Output format]
Write exactly these two parts, briefly:
1. 💡 **행동 지침**: what to do, in 1-2 sentences
2. 🗣️ **표준 스크립트**: 1-2 key sentences to say to the customer`

const usagePrompt = `Define in one short, precise sentence when this reference document should be used during a consultation.
Express the concrete situation as keywords, as briefly as possible.

[Document body]
%s

[Example outputs]
- 단순 변심 환불 방어 시 (7일 경과)
- 제품 하자 주장 대응 (증빙 없을 때)
- 해지 위약금 안내 필요 시

[Actual output]
사용 시점:`

type Refiner struct {
	provider  llm.Provider
	maxTokens int
	timeout   time.Duration
}

func New(provider llm.Provider, maxTokens int, timeout time.Duration) *Refiner {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Refiner{provider: provider, maxTokens: maxTokens, timeout: timeout}
}

// Guideline converts a raw admin instruction into the refined guideline
// text that gets stored and injected into coaching prompts.
func (r *Refiner) Guideline(ctx context.Context, category, raw string) (string, error) {
	text, err := r.generate(ctx, fmt.Sprintf(guidelinePrompt, category, raw))
	if err != nil {
		return "", fmt.Errorf("refining guideline: %w", err)
	}
	return text, nil
}

// ReferenceUsage produces the short usage-context line stored as a
// reference's summary. The model sometimes echoes the prompt's trailing
// label, so it is stripped from the response.
func (r *Refiner) ReferenceUsage(ctx context.Context, content string) (string, error) {
	text, err := r.generate(ctx, fmt.Sprintf(usagePrompt, content))
	if err != nil {
		return "", fmt.Errorf("summarizing reference usage: %w", err)
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "사용 시점:", ""))
	return text, nil
}

func (r *Refiner) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Generate(ctx, llm.Request{
		Parts:     []llm.Part{llm.TextPart(prompt)},
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
