// Package assemble gathers the context an analysis call needs: applicable
// guidelines, the customer's recent history, and the reference catalog in
// light (phase 1) and full (phase 2) forms.
package assemble

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/database"
)

// Category describes one active consultation type for the extraction prompt.
type Category struct {
	Name        string
	DisplayName string
	Description string
}

// ReferenceMeta is the lightweight catalog entry fed to phase 1.
// Only id, title, and the usage summary go into the prompt to keep the
// context budget small.
type ReferenceMeta struct {
	ID      int64
	Title   string
	Summary string
}

// ReferenceDoc is the full document fed to phase 2 for a confirmed subset.
// When Attachment is set, the binary replaces the text excerpt in the
// prompt; sending both would duplicate content.
type ReferenceDoc struct {
	ID         int64
	Title      string
	Content    string
	FileURL    string
	Attachment []byte
	MIMEType   string
}

// Assembler reads coaching context from the store and resolves reference
// attachments.
type Assembler struct {
	db     *database.DB
	client *http.Client
}

// New creates an Assembler.
func New(db *database.DB) *Assembler {
	return &Assembler{
		db:     db,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Guidelines returns the refined content of every active guideline whose
// category is "common" or the target category.
func (a *Assembler) Guidelines(category string) ([]string, error) {
	rows, err := a.db.GetActiveGuidelines(category)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(rows))
	for _, g := range rows {
		texts = append(texts, g.RefinedContent)
	}
	return texts, nil
}

// historyWindow is the bounded number of past consultations included in a
// coaching prompt.
const historyWindow = 3

// HistoryWindow returns the customer's most recent history entries, trimmed
// to the window. A nil customer (anonymous session) yields no history.
func HistoryWindow(customer *database.Customer) []database.HistoryEntry {
	if customer == nil {
		return nil
	}
	h := customer.ConsultationHistory
	if len(h) > historyWindow {
		h = h[len(h)-historyWindow:]
	}
	return h
}

// CatalogLight returns the active reference catalog as phase-1 metadata.
func (a *Assembler) CatalogLight() ([]ReferenceMeta, error) {
	refs, err := a.db.GetActiveReferences(nil)
	if err != nil {
		return nil, err
	}
	metas := make([]ReferenceMeta, 0, len(refs))
	for _, r := range refs {
		m := ReferenceMeta{ID: r.ID, Title: r.Title}
		if r.Summary != nil {
			m.Summary = *r.Summary
		}
		metas = append(metas, m)
	}
	return metas, nil
}

// Categories returns the active consultation types with descriptions for
// the extraction prompt.
func (a *Assembler) Categories() ([]Category, error) {
	types, err := a.db.GetActiveConsultationTypes()
	if err != nil {
		return nil, err
	}
	cats := make([]Category, 0, len(types))
	for _, t := range types {
		c := Category{Name: t.Name, DisplayName: t.DisplayName}
		if t.Description != nil {
			c.Description = *t.Description
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// ResolveReferences loads the full documents for the confirmed IDs.
// Inactive or unknown IDs are skipped: a session's selection is always a
// subset of the active set at assembly time. Attachment failures degrade to
// the text excerpt, or drop the document with a warning when there is none.
func (a *Assembler) ResolveReferences(ctx context.Context, ids []int64) ([]ReferenceDoc, error) {
	docs := make([]ReferenceDoc, 0, len(ids))
	for _, id := range ids {
		ref, err := a.db.GetReference(id)
		if err != nil {
			return nil, err
		}
		if ref == nil || !ref.IsActive {
			continue
		}

		doc := ReferenceDoc{ID: ref.ID, Title: ref.Title}
		if ref.Content != nil {
			doc.Content = *ref.Content
		}
		if ref.FileURL != nil && *ref.FileURL != "" {
			doc.FileURL = *ref.FileURL
			data, mimeType, err := a.fetchAttachment(ctx, *ref.FileURL)
			if err != nil {
				if doc.Content == "" {
					log.Printf("reference %d (%s): attachment fetch failed and no text excerpt, omitting: %v", ref.ID, ref.Title, err)
					continue
				}
				log.Printf("reference %d (%s): attachment fetch failed, using text excerpt: %v", ref.ID, ref.Title, err)
			} else {
				doc.Attachment = data
				doc.MIMEType = mimeType
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
