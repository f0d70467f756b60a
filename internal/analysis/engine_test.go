package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/assemble"
	"github.com/hyeonsu-an/smartcoach/internal/database"
	"github.com/hyeonsu-an/smartcoach/internal/llm"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	lastReq  llm.Request
}

func (m *mockProvider) Generate(_ context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

var testCats = []assemble.Category{
	{Name: "general", DisplayName: "General"},
	{Name: "refund", DisplayName: "Refund", Description: "Refund requests"},
	{Name: "tech", DisplayName: "Technical"},
}

var testCatalog = []assemble.ReferenceMeta{
	{ID: 1, Title: "환불 규정", Summary: "환불 방어 시"},
	{ID: 2, Title: "해지 위약금 기준", Summary: "해지 안내 시"},
}

func newTestEngine(p llm.Provider) *Engine {
	return New(p, 1024, 5*time.Second)
}

func TestExtractHappyPath(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"top_topics":      []string{"refund", "general"},
		"customer_traits": "급함, 화남",
		"customer_info":   map[string]any{"name": "김민지", "phone": "010-1234-5678"},
		"summary":         "환불 요청 상담",
		"recommended_ref_ids": []int64{1},
	})

	mock := &mockProvider{response: string(resp)}
	engine := newTestEngine(mock)

	res, err := engine.Extract(context.Background(), Evidence{Script: "고객이 환불을 요청함"}, testCatalog, testCats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Topics) != 2 || res.Topics[0] != "refund" {
		t.Errorf("unexpected topics %v", res.Topics)
	}
	if res.CustomerName == nil || *res.CustomerName != "김민지" {
		t.Errorf("expected extracted name, got %v", res.CustomerName)
	}
	if len(res.RecommendedRefIDs) != 1 || res.RecommendedRefIDs[0] != 1 {
		t.Errorf("unexpected ref IDs %v", res.RecommendedRefIDs)
	}
	if !mock.lastReq.JSONOnly {
		t.Error("extraction should request structured JSON output")
	}
}

func TestExtractDropsHallucinatedRefIDs(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"top_topics":          []string{"refund"},
		"customer_traits":     "논리적",
		"customer_info":       map[string]any{"name": nil, "phone": nil},
		"summary":             "요약",
		"recommended_ref_ids": []int64{1, 777, 2},
	})

	engine := newTestEngine(&mockProvider{response: string(resp)})
	res, err := engine.Extract(context.Background(), Evidence{Script: "s"}, testCatalog, testCats)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.RecommendedRefIDs) != 2 {
		t.Fatalf("expected hallucinated ID dropped, got %v", res.RecommendedRefIDs)
	}
	for _, id := range res.RecommendedRefIDs {
		if id == 777 {
			t.Error("unknown ID 777 must not be trusted")
		}
	}
}

func TestExtractFiltersUnknownTopics(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"top_topics":    []string{"billing", "refund", "made-up", "tech", "general"},
		"summary":       "s",
		"customer_info": map[string]any{},
	})

	engine := newTestEngine(&mockProvider{response: string(resp)})
	res, err := engine.Extract(context.Background(), Evidence{Script: "s"}, nil, testCats)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"refund", "tech", "general"}
	if len(res.Topics) != 3 {
		t.Fatalf("expected top 3 valid topics, got %v", res.Topics)
	}
	for i, w := range want {
		if res.Topics[i] != w {
			t.Errorf("topic[%d] = %q, want %q", i, res.Topics[i], w)
		}
	}
}

func TestExtractFallbackOnOracleError(t *testing.T) {
	engine := newTestEngine(&mockProvider{err: fmt.Errorf("deadline exceeded")})
	res, err := engine.Extract(context.Background(), Evidence{Script: "s"}, testCatalog, testCats)
	if err != nil {
		t.Fatalf("oracle failure must not propagate: %v", err)
	}
	if res.Summary != "analysis failed" {
		t.Errorf("expected fallback summary, got %q", res.Summary)
	}
	if res.CustomerTraits != "unknown" {
		t.Errorf("expected fallback traits, got %q", res.CustomerTraits)
	}
	if len(res.RecommendedRefIDs) != 0 {
		t.Errorf("fallback must recommend nothing, got %v", res.RecommendedRefIDs)
	}
	if len(res.Topics) != 1 || res.Topics[0] != "general" {
		t.Errorf("expected generic default topic, got %v", res.Topics)
	}
	if res.CustomerName != nil || res.CustomerPhone != nil {
		t.Error("fallback customer info must be nil")
	}
}

func TestExtractFallbackOnUnparsableResponse(t *testing.T) {
	engine := newTestEngine(&mockProvider{response: "I could not produce JSON, sorry."})
	res, err := engine.Extract(context.Background(), Evidence{Script: "s"}, testCatalog, testCats)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != "analysis failed" || len(res.RecommendedRefIDs) != 0 {
		t.Errorf("expected fallback record, got %+v", res)
	}
}

func TestExtractMissingEvidence(t *testing.T) {
	engine := newTestEngine(&mockProvider{})
	_, err := engine.Extract(context.Background(), Evidence{}, nil, testCats)
	var missing *MissingEvidenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingEvidenceError, got %v", err)
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"score": 85,
		"metrics": map[string]int{
			"compliance": 90, "empathy": 80, "clarity": 85,
		},
		"feedback":   "## 잘한 점\n환불 규정 제1조를 정확히 안내함",
		"transcript": "",
	})

	engine := newTestEngine(&mockProvider{response: string(resp)})
	res, err := engine.Analyze(context.Background(), Evidence{Script: "s"}, "refund", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 85 {
		t.Errorf("score = %d", res.Score)
	}
	if res.Metrics != (database.Metrics{Compliance: 90, Empathy: 80, Clarity: 85}) {
		t.Errorf("metrics = %+v", res.Metrics)
	}
	if res.Category != "refund" {
		t.Errorf("category = %q, want confirmed category", res.Category)
	}
}

func TestAnalyzeClampsScores(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"score":    150,
		"metrics":  map[string]int{"compliance": -5, "empathy": 101, "clarity": 50},
		"feedback": "f",
	})

	engine := newTestEngine(&mockProvider{response: string(resp)})
	res, err := engine.Analyze(context.Background(), Evidence{Script: "s"}, "general", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 100 || res.Metrics.Compliance != 0 || res.Metrics.Empathy != 100 {
		t.Errorf("scores not clamped: %+v", res)
	}
}

func TestAnalyzeFallbackCarriesError(t *testing.T) {
	engine := newTestEngine(&mockProvider{response: "???"})
	res, err := engine.Analyze(context.Background(), Evidence{Script: "s"}, "tech", nil, nil, nil)
	if err != nil {
		t.Fatalf("malformed output must not propagate: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("fallback must be zero-score, got %d", res.Score)
	}
	if !strings.Contains(res.Feedback, "Analysis error") {
		t.Errorf("fallback feedback should describe the error, got %q", res.Feedback)
	}
	if res.Category != "tech" {
		t.Errorf("fallback keeps the confirmed category, got %q", res.Category)
	}
}

func TestAnalyzeAttachmentReplacesExcerpt(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{"score": 70, "metrics": map[string]int{}, "feedback": "f"})
	mock := &mockProvider{response: string(resp)}
	engine := newTestEngine(mock)

	refs := []assemble.ReferenceDoc{
		{ID: 1, Title: "스캔 규정", Content: "fallback text that must not appear", Attachment: []byte{0x25, 0x50}, MIMEType: "application/pdf"},
	}
	if _, err := engine.Analyze(context.Background(), Evidence{Script: "s"}, "refund", nil, nil, refs); err != nil {
		t.Fatal(err)
	}

	var sawBlob bool
	for _, p := range mock.lastReq.Parts {
		if p.Data != nil && p.MIMEType == "application/pdf" {
			sawBlob = true
		}
		if strings.Contains(p.Text, "fallback text that must not appear") {
			t.Error("attachment and text excerpt must not both be sent")
		}
	}
	if !sawBlob {
		t.Error("attachment was not supplied as a binary part")
	}
}

func TestCitesReference(t *testing.T) {
	refs := []assemble.ReferenceDoc{{Title: "소비자 분쟁 해결 기준"}}
	if !CitesReference("근거: 소비자 분쟁 해결 기준 제3조", refs) {
		t.Error("expected citation to be detected")
	}
	if CitesReference("근거 없음", refs) {
		t.Error("expected no citation")
	}
	if CitesReference("anything", nil) {
		t.Error("no refs means no citation")
	}
}

func TestAudioMIMEType(t *testing.T) {
	cases := map[string]string{
		"call.mp3": "audio/mp3",
		"call.wav": "audio/wav",
		"call.m4a": "audio/mp4",
		"call":     "audio/mp3",
	}
	for name, want := range cases {
		if got := AudioMIMEType(name); got != want {
			t.Errorf("AudioMIMEType(%q) = %q, want %q", name, got, want)
		}
	}
}
