// Package reconcile merges the oracle's recommended reference IDs with the
// operator's confirmation into the final set used for coaching.
//
// Only recommended documents are surfaced, each pre-selected; the operator
// can deselect but cannot add a document the oracle did not recommend.
// Known product limitation, kept deliberately so the checklist stays short.
package reconcile

import "github.com/hyeonsu-an/smartcoach/internal/assemble"

// Item is one confirmable entry on the checklist.
type Item struct {
	ID       int64
	Title    string
	Summary  string
	Selected bool
}

// Checklist is the operator-facing confirmation list.
type Checklist struct {
	items []Item
}

// NewChecklist builds the checklist from the recommended IDs, resolving
// titles from the light catalog. Recommendations not present in the catalog
// are ignored. Every surfaced item starts selected.
func NewChecklist(recommended []int64, catalog []assemble.ReferenceMeta) *Checklist {
	byID := make(map[int64]assemble.ReferenceMeta, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}

	cl := &Checklist{}
	for _, id := range recommended {
		m, ok := byID[id]
		if !ok {
			continue
		}
		cl.items = append(cl.items, Item{ID: m.ID, Title: m.Title, Summary: m.Summary, Selected: true})
	}
	return cl
}

// Items returns the checklist entries in recommendation order.
func (c *Checklist) Items() []Item {
	return c.items
}

// Deselect unchecks the item with the given ID.
func (c *Checklist) Deselect(id int64) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Selected = false
		}
	}
}

// FinalIDs returns the IDs still selected.
func (c *Checklist) FinalIDs() []int64 {
	var ids []int64
	for _, it := range c.items {
		if it.Selected {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Finalize intersects the operator-confirmed IDs with the recommended set,
// preserving recommendation order. The output is always a subset of the
// recommendations regardless of what the caller passes in.
func Finalize(recommended, confirmed []int64) []int64 {
	confirmedSet := make(map[int64]bool, len(confirmed))
	for _, id := range confirmed {
		confirmedSet[id] = true
	}

	var final []int64
	for _, id := range recommended {
		if confirmedSet[id] {
			final = append(final, id)
		}
	}
	return final
}
