package assemble

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyeonsu-an/smartcoach/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestGuidelinesUnion(t *testing.T) {
	db := openTestDB(t)
	db.InsertGuideline("common", "greet", "Greet the customer.")
	db.InsertGuideline("refund", "window", "Explain the 7-day window.")
	db.InsertGuideline("tech", "restart", "Ask for a restart first.")

	a := New(db)
	texts, err := a.Guidelines("refund")
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 {
		t.Fatalf("expected common + refund guidelines, got %d", len(texts))
	}
}

func TestHistoryWindowBounds(t *testing.T) {
	cust := &database.Customer{}
	for i := 0; i < 5; i++ {
		cust.ConsultationHistory = append(cust.ConsultationHistory, database.HistoryEntry{
			Date: "2026-08-0" + string(rune('1'+i)), Summary: "s", Traits: "t",
		})
	}

	window := HistoryWindow(cust)
	if len(window) != 3 {
		t.Fatalf("expected window of 3, got %d", len(window))
	}
	if window[0].Date != "2026-08-03" {
		t.Errorf("expected the most recent 3 entries, first was %s", window[0].Date)
	}

	if got := HistoryWindow(nil); got != nil {
		t.Errorf("anonymous session should have no history, got %v", got)
	}
}

func TestCatalogLightOnlyActive(t *testing.T) {
	db := openTestDB(t)
	db.InsertReference("refund", "환불 규정", ptr("본문"), ptr("환불 방어 시"), nil)
	inactive, _ := db.InsertReference("tech", "구버전 매뉴얼", ptr("본문"), nil, nil)
	db.DeactivateReference(inactive)

	a := New(db)
	metas, err := a.CatalogLight()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 active reference, got %d", len(metas))
	}
	if metas[0].Title != "환불 규정" || metas[0].Summary != "환불 방어 시" {
		t.Errorf("unexpected meta %+v", metas[0])
	}
}

func TestResolveReferencesSkipsInactiveAndUnknown(t *testing.T) {
	db := openTestDB(t)
	active, _ := db.InsertReference("refund", "환불 규정", ptr("제1조..."), nil, nil)
	inactive, _ := db.InsertReference("tech", "구버전", ptr("본문"), nil, nil)
	db.DeactivateReference(inactive)

	a := New(db)
	docs, err := a.ResolveReferences(context.Background(), []int64{active, inactive, 9999})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 resolved doc, got %d", len(docs))
	}
	if docs[0].Content != "제1조..." {
		t.Errorf("unexpected content %q", docs[0].Content)
	}
}

func TestResolveReferencesFetchesAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	db := openTestDB(t)
	id, _ := db.InsertReference("refund", "스캔 규정", nil, nil, ptr(srv.URL+"/doc.pdf"))

	a := New(db)
	docs, err := a.ResolveReferences(context.Background(), []int64{id})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if string(docs[0].Attachment) != "%PDF-1.4 fake" {
		t.Errorf("attachment bytes not fetched")
	}
	if docs[0].MIMEType != "application/pdf" {
		t.Errorf("unexpected mime type %q", docs[0].MIMEType)
	}
}

func TestResolveReferencesFetchFailureFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	db := openTestDB(t)
	withText, _ := db.InsertReference("refund", "규정", ptr("텍스트 본문"), nil, ptr(srv.URL+"/a.pdf"))
	withoutText, _ := db.InsertReference("refund", "스캔만", nil, nil, ptr(srv.URL+"/b.pdf"))

	a := New(db)
	docs, err := a.ResolveReferences(context.Background(), []int64{withText, withoutText})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected only the text-backed doc, got %d", len(docs))
	}
	if docs[0].Content != "텍스트 본문" || docs[0].Attachment != nil {
		t.Errorf("expected text fallback without attachment, got %+v", docs[0])
	}
}
