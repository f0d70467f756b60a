// Package analysis implements the two-phase inference contract: phase 1
// extracts who and what the consultation was about, phase 2 scores it
// against assembled context. Oracle failures never halt the pipeline; both
// phases degrade to defined fallback records.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/assemble"
	"github.com/hyeonsu-an/smartcoach/internal/database"
	"github.com/hyeonsu-an/smartcoach/internal/llm"
)

// DefaultCategory is the topic assigned when extraction fails or suggests
// nothing usable.
const DefaultCategory = "general"

// ExtractionResult is the phase-1 output: ranked topic candidates, customer
// traits and identity, a one-line summary, and recommended reference IDs.
type ExtractionResult struct {
	Topics            []string
	CustomerTraits    string
	CustomerName      *string
	CustomerPhone     *string
	Summary           string
	RecommendedRefIDs []int64
}

// FeedbackResult is the phase-2 output: the overall score, sub-metrics,
// markdown feedback, and (for audio evidence) a transcript.
type FeedbackResult struct {
	Score      int
	Metrics    database.Metrics
	Feedback   string
	Category   string
	Transcript string
}

// Engine runs the two analysis phases against an inference provider.
type Engine struct {
	provider  llm.Provider
	maxTokens int
	timeout   time.Duration
}

// New creates an Engine. The timeout bounds each oracle call; on expiry the
// phase returns its fallback record instead of hanging the workflow.
func New(provider llm.Provider, maxTokens int, timeout time.Duration) *Engine {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{provider: provider, maxTokens: maxTokens, timeout: timeout}
}

// Extract runs phase 1. It returns a hard error only for missing evidence;
// oracle and parse failures yield the fallback record.
func (e *Engine) Extract(ctx context.Context, ev Evidence, refs []assemble.ReferenceMeta, cats []assemble.Category) (*ExtractionResult, error) {
	if ev.Empty() {
		return nil, &MissingEvidenceError{}
	}

	prompt := fmt.Sprintf(extractPrompt, formatCategories(cats), formatCatalog(refs))
	parts := []llm.Part{llm.TextPart(prompt), ev.part("Consultation")}

	raw, err := e.generate(ctx, parts)
	if err != nil {
		log.Printf("extraction failed, using fallback record: %v", err)
		return extractionFallback(cats), nil
	}

	var payload struct {
		Topics            []string `json:"top_topics"`
		CustomerTraits    string   `json:"customer_traits"`
		CustomerInfo      struct {
			Name  *string `json:"name"`
			Phone *string `json:"phone"`
		} `json:"customer_info"`
		Summary           string  `json:"summary"`
		RecommendedRefIDs []int64 `json:"recommended_ref_ids"`
	}
	if err := llm.DecodeObject(raw, &payload); err != nil {
		log.Printf("extraction response unparsable, using fallback record: %v", err)
		return extractionFallback(cats), nil
	}

	result := &ExtractionResult{
		Topics:            validTopics(payload.Topics, cats),
		CustomerTraits:    payload.CustomerTraits,
		CustomerName:      emptyToNil(payload.CustomerInfo.Name),
		CustomerPhone:     emptyToNil(payload.CustomerInfo.Phone),
		Summary:           payload.Summary,
		RecommendedRefIDs: knownRefIDs(payload.RecommendedRefIDs, refs),
	}
	if result.CustomerTraits == "" {
		result.CustomerTraits = "unknown"
	}
	if result.Summary == "" {
		result.Summary = "analysis failed"
	}
	return result, nil
}

// Analyze runs phase 2 for the confirmed category. Oracle and parse
// failures yield a zero-score fallback carrying the error description.
func (e *Engine) Analyze(ctx context.Context, ev Evidence, category string, history []database.HistoryEntry, guidelines []string, refs []assemble.ReferenceDoc) (*FeedbackResult, error) {
	if ev.Empty() {
		return nil, &MissingEvidenceError{}
	}

	prompt := fmt.Sprintf(coachingPrompt, formatHistory(history), formatGuidelines(guidelines), formatReferences(refs))
	parts := []llm.Part{llm.TextPart(prompt)}
	// Binary attachments ride along as their own parts; their text excerpt
	// was already suppressed in formatReferences.
	for _, r := range refs {
		if r.Attachment != nil {
			parts = append(parts, llm.TextPart(fmt.Sprintf("[Attachment of reference document: %s]", r.Title)))
			parts = append(parts, llm.BlobPart(r.Attachment, r.MIMEType))
		}
	}
	parts = append(parts, ev.part("Current consultation"))

	raw, err := e.generate(ctx, parts)
	if err != nil {
		log.Printf("coaching analysis failed, using fallback record: %v", err)
		return feedbackFallback(category, err), nil
	}

	var payload struct {
		Score   int `json:"score"`
		Metrics struct {
			Compliance int `json:"compliance"`
			Empathy    int `json:"empathy"`
			Clarity    int `json:"clarity"`
		} `json:"metrics"`
		Feedback   string `json:"feedback"`
		Transcript string `json:"transcript"`
	}
	if err := llm.DecodeObject(raw, &payload); err != nil {
		log.Printf("coaching response unparsable, using fallback record: %v", err)
		return feedbackFallback(category, err), nil
	}

	return &FeedbackResult{
		Score: clampScore(payload.Score),
		Metrics: database.Metrics{
			Compliance: clampScore(payload.Metrics.Compliance),
			Empathy:    clampScore(payload.Metrics.Empathy),
			Clarity:    clampScore(payload.Metrics.Clarity),
		},
		Feedback:   payload.Feedback,
		Category:   category,
		Transcript: payload.Transcript,
	}, nil
}

// CitesReference reports whether the feedback mentions any supplied
// document title. Quality check only; the citation requirement is a prompt
// contract, not mechanically enforceable.
func CitesReference(feedback string, refs []assemble.ReferenceDoc) bool {
	for _, r := range refs {
		if r.Title != "" && strings.Contains(feedback, r.Title) {
			return true
		}
	}
	return false
}

func (e *Engine) generate(ctx context.Context, parts []llm.Part) (string, error) {
	if e.provider == nil {
		return "", fmt.Errorf("no inference provider available")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.provider.Generate(ctx, llm.Request{Parts: parts, MaxTokens: e.maxTokens, JSONOnly: true})
}

// extractionFallback is the defined phase-1 degradation record.
func extractionFallback(cats []assemble.Category) *ExtractionResult {
	return &ExtractionResult{
		Topics:         []string{fallbackTopic(cats)},
		CustomerTraits: "unknown",
		Summary:        "analysis failed",
	}
}

// feedbackFallback is the defined phase-2 degradation record: zero scores
// with the error description where the feedback would be.
func feedbackFallback(category string, err error) *FeedbackResult {
	return &FeedbackResult{
		Feedback: fmt.Sprintf("Analysis error: %v", err),
		Category: category,
	}
}

func fallbackTopic(cats []assemble.Category) string {
	for _, c := range cats {
		if c.Name == DefaultCategory {
			return DefaultCategory
		}
	}
	if len(cats) > 0 {
		return cats[0].Name
	}
	return DefaultCategory
}

// validTopics filters hallucinated categories and clamps the list to the
// top 3, falling back to the generic default when nothing survives.
func validTopics(topics []string, cats []assemble.Category) []string {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.Name] = true
	}
	var out []string
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if known[t] && !contains(out, t) {
			out = append(out, t)
		}
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		out = []string{fallbackTopic(cats)}
	}
	return out
}

// knownRefIDs drops recommended IDs that were not in the supplied catalog.
// Unknown-ID hallucinations are not trusted.
func knownRefIDs(ids []int64, refs []assemble.ReferenceMeta) []int64 {
	known := make(map[int64]bool, len(refs))
	for _, r := range refs {
		known[r.ID] = true
	}
	var out []int64
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func formatCategories(cats []assemble.Category) string {
	if len(cats) == 0 {
		return "- general: consultations that fit no specific category"
	}
	var lines []string
	for _, c := range cats {
		line := "- " + c.Name
		if c.Description != "" {
			line += ": " + c.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatCatalog(refs []assemble.ReferenceMeta) string {
	if len(refs) == 0 {
		return "(no reference materials available)"
	}
	var lines []string
	for _, r := range refs {
		lines = append(lines, fmt.Sprintf("- ID:%d | %s (when to use: %s)", r.ID, r.Title, r.Summary))
	}
	return strings.Join(lines, "\n")
}

func formatHistory(history []database.HistoryEntry) string {
	if len(history) == 0 {
		return "(first contact, no history)"
	}
	var lines []string
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- %s: %s (traits: %s)", h.Date, h.Summary, h.Traits))
	}
	return strings.Join(lines, "\n")
}

func formatGuidelines(guidelines []string) string {
	if len(guidelines) == 0 {
		return "(none)"
	}
	var lines []string
	for _, g := range guidelines {
		lines = append(lines, "- "+g)
	}
	return strings.Join(lines, "\n")
}

func formatReferences(refs []assemble.ReferenceDoc) string {
	if len(refs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("[Reference documents (laws, regulations, manuals)]\n")
	for _, r := range refs {
		if r.Attachment != nil {
			// The scanned original is supplied as a binary part instead.
			sb.WriteString(fmt.Sprintf("==== %s ====\n(supplied as attachment)\n================\n", r.Title))
			continue
		}
		sb.WriteString(fmt.Sprintf("==== %s ====\n%s\n================\n", r.Title, r.Content))
	}
	return sb.String()
}
