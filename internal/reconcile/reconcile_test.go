package reconcile

import (
	"testing"

	"github.com/hyeonsu-an/smartcoach/internal/assemble"
)

var catalog = []assemble.ReferenceMeta{
	{ID: 1, Title: "환불 규정", Summary: "환불 방어 시"},
	{ID: 2, Title: "해지 위약금 기준"},
	{ID: 3, Title: "설치 매뉴얼"},
}

func TestChecklistDefaultsToSelected(t *testing.T) {
	cl := NewChecklist([]int64{2, 1}, catalog)

	items := cl.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != 2 || items[1].ID != 1 {
		t.Errorf("recommendation order not preserved: %+v", items)
	}
	for _, it := range items {
		if !it.Selected {
			t.Errorf("item %d should start selected", it.ID)
		}
	}
}

func TestChecklistIgnoresUnknownRecommendations(t *testing.T) {
	cl := NewChecklist([]int64{1, 999}, catalog)
	if len(cl.Items()) != 1 {
		t.Errorf("unknown recommendation should not be surfaced, got %+v", cl.Items())
	}
}

func TestDeselectExcludes(t *testing.T) {
	cl := NewChecklist([]int64{1, 2, 3}, catalog)
	cl.Deselect(2)

	ids := cl.FinalIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("expected [1 3], got %v", ids)
	}
}

func TestFinalizeIsSubsetOfRecommended(t *testing.T) {
	// The operator cannot smuggle in an unrecommended ID.
	final := Finalize([]int64{1, 2}, []int64{2, 5, 99})
	if len(final) != 1 || final[0] != 2 {
		t.Errorf("expected [2], got %v", final)
	}
}

func TestFinalizeEmptyConfirmation(t *testing.T) {
	if final := Finalize([]int64{1, 2}, nil); len(final) != 0 {
		t.Errorf("expected empty final set, got %v", final)
	}
}

func TestFinalizePreservesRecommendationOrder(t *testing.T) {
	final := Finalize([]int64{3, 1, 2}, []int64{1, 2, 3})
	want := []int64{3, 1, 2}
	for i, w := range want {
		if final[i] != w {
			t.Fatalf("expected %v, got %v", want, final)
		}
	}
}
