package refine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/llm"
)

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

func TestGuidelineRefinement(t *testing.T) {
	mock := &mockProvider{response: "1. 💡 **행동 지침**: 7일 경과 환불은 규정을 안내한다.\n2. 🗣️ **표준 스크립트**: \"고객님, 규정상 7일이 지나 환불이 어렵습니다.\""}
	r := New(mock, 0, 0)

	got, err := r.Guideline(context.Background(), "refund", "환불 막아")
	if err != nil {
		t.Fatal(err)
	}
	if got != mock.response {
		t.Errorf("refined text altered: %q", got)
	}
	prompt := mock.lastReq.Parts[0].Text
	if !strings.Contains(prompt, "refund") || !strings.Contains(prompt, "환불 막아") {
		t.Error("prompt must carry category and raw instruction")
	}
	if mock.lastReq.JSONOnly {
		t.Error("refinement is free-form text, not JSON")
	}
}

func TestReferenceUsageStripsLabel(t *testing.T) {
	mock := &mockProvider{response: "사용 시점: 단순 변심 환불 방어 시\n"}
	r := New(mock, 512, time.Second)

	got, err := r.ReferenceUsage(context.Background(), "제1조 환불 규정 전문")
	if err != nil {
		t.Fatal(err)
	}
	if got != "단순 변심 환불 방어 시" {
		t.Errorf("got %q", got)
	}
}

func TestErrorsSurface(t *testing.T) {
	oracleErr := errors.New("quota exceeded")
	r := New(&mockProvider{err: oracleErr}, 512, time.Second)

	if _, err := r.Guideline(context.Background(), "general", "raw"); !errors.Is(err, oracleErr) {
		t.Errorf("guideline error not surfaced: %v", err)
	}
	if _, err := r.ReferenceUsage(context.Background(), "content"); !errors.Is(err, oracleErr) {
		t.Errorf("usage error not surfaced: %v", err)
	}
}
