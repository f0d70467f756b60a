// Package session drives a single coaching workflow through its phases:
// Input (collecting evidence) -> Extracted (phase-1 output awaiting human
// confirmation) -> Result (phase-2 output persisted). Reset returns to
// Input from anywhere, discarding all working data.
package session

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/hyeonsu-an/smartcoach/internal/aggregate"
	"github.com/hyeonsu-an/smartcoach/internal/analysis"
	"github.com/hyeonsu-an/smartcoach/internal/assemble"
	"github.com/hyeonsu-an/smartcoach/internal/blob"
	"github.com/hyeonsu-an/smartcoach/internal/database"
	"github.com/hyeonsu-an/smartcoach/internal/reconcile"
)

// Phase is the current step of a coaching workflow.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseExtracted
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhaseExtracted:
		return "Extracted"
	case PhaseResult:
		return "Result"
	default:
		return "Unknown"
	}
}

// Session is one consultant's active coaching workflow. It is driven by a
// single interactive actor; it is not safe for concurrent use, and its
// working data lives only as long as the workflow.
type Session struct {
	db         *database.DB
	engine     *analysis.Engine
	assembler  *assemble.Assembler
	aggregator *aggregate.Aggregator
	blobs      blob.Store

	consultantID string

	phase     Phase
	extracted *extractedState
	result    *resultState
}

// extractedState is the working data valid only in the Extracted phase.
type extractedState struct {
	evidence   analysis.Evidence
	extraction *analysis.ExtractionResult
	catalog    []assemble.ReferenceMeta
}

// resultState is the working data valid only in the Result phase.
type resultState struct {
	feedback *analysis.FeedbackResult
	customer *database.Customer
	logID    int64
}

// New creates a session in the Input phase for the given consultant.
// blobs may be nil; audio then stays unarchived with a logged warning.
func New(db *database.DB, engine *analysis.Engine, assembler *assemble.Assembler, aggregator *aggregate.Aggregator, blobs blob.Store, consultantID string) *Session {
	return &Session{
		db:           db,
		engine:       engine,
		assembler:    assembler,
		aggregator:   aggregator,
		blobs:        blobs,
		consultantID: consultantID,
		phase:        PhaseInput,
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Extraction returns the phase-1 result, valid once the session reaches
// the Extracted phase.
func (s *Session) Extraction() *analysis.ExtractionResult {
	if s.extracted == nil {
		return nil
	}
	return s.extracted.extraction
}

// Checklist builds the operator confirmation checklist from the phase-1
// recommendations, every item pre-selected.
func (s *Session) Checklist() *reconcile.Checklist {
	if s.extracted == nil {
		return reconcile.NewChecklist(nil, nil)
	}
	return reconcile.NewChecklist(s.extracted.extraction.RecommendedRefIDs, s.extracted.catalog)
}

// Result returns the final feedback, valid once the session reaches the
// Result phase.
func (s *Session) Result() *analysis.FeedbackResult {
	if s.result == nil {
		return nil
	}
	return s.result.feedback
}

// Customer returns the customer resolved during confirmation, or nil for
// anonymous sessions.
func (s *Session) Customer() *database.Customer {
	if s.result == nil {
		return nil
	}
	return s.result.customer
}

// LogID returns the persisted coaching log's ID, or 0 when persistence
// failed.
func (s *Session) LogID() int64 {
	if s.result == nil {
		return 0
	}
	return s.result.logID
}

// SubmitInput runs phase-1 extraction on the evidence and moves the
// session to Extracted. It fails hard only on empty input or a store read
// error; oracle trouble degrades inside the engine.
func (s *Session) SubmitInput(ctx context.Context, ev analysis.Evidence) error {
	if s.phase != PhaseInput {
		return &PhaseError{Op: "SubmitInput", Got: s.phase, Want: PhaseInput}
	}
	if ev.Empty() {
		return &InvalidInputError{}
	}

	catalog, err := s.assembler.CatalogLight()
	if err != nil {
		return err
	}
	cats, err := s.assembler.Categories()
	if err != nil {
		return err
	}

	extraction, err := s.engine.Extract(ctx, ev, catalog, cats)
	if err != nil {
		return err
	}

	s.extracted = &extractedState{evidence: ev, extraction: extraction, catalog: catalog}
	s.phase = PhaseExtracted
	return nil
}

// ConfirmAndAnalyze completes the workflow with the operator's confirmed
// identity, category, and reference selection. Once phase 2 succeeds the
// result is durable without an explicit save: the log is written, customer
// history appended, and the consultant's stats recomputed. A store failure
// after analysis is returned as a *PersistenceError next to the still-valid
// result, never instead of it.
func (s *Session) ConfirmAndAnalyze(ctx context.Context, customerName, customerPhone, category string, confirmedRefIDs []int64) (*analysis.FeedbackResult, error) {
	if s.phase != PhaseExtracted {
		return nil, &PhaseError{Op: "ConfirmAndAnalyze", Got: s.phase, Want: PhaseExtracted}
	}

	st := s.extracted
	finalIDs := reconcile.Finalize(st.extraction.RecommendedRefIDs, confirmedRefIDs)

	customer, err := s.resolveCustomer(customerName, customerPhone)
	if err != nil {
		return nil, err
	}

	guidelines, err := s.assembler.Guidelines(category)
	if err != nil {
		return nil, err
	}
	refs, err := s.assembler.ResolveReferences(ctx, finalIDs)
	if err != nil {
		return nil, err
	}
	history := assemble.HistoryWindow(customer)

	feedback, err := s.engine.Analyze(ctx, st.evidence, category, history, guidelines, refs)
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 && !analysis.CitesReference(feedback.Feedback, refs) {
		log.Printf("feedback cites none of the %d confirmed reference documents", len(refs))
	}

	logID, persistErr := s.persist(customer, customerName, customerPhone, category, feedback)

	s.result = &resultState{feedback: feedback, customer: customer, logID: logID}
	s.extracted = nil
	s.phase = PhaseResult
	return feedback, persistErr
}

// Reset discards all working data unconditionally and returns to Input.
func (s *Session) Reset() {
	s.extracted = nil
	s.result = nil
	s.phase = PhaseInput
}

// resolveCustomer implements identity resolution: a phone number gets (or
// creates) a durable customer, with a placeholder name derived from the
// phone when none was given. Without a phone the session stays anonymous;
// no customer row is searched or created.
func (s *Session) resolveCustomer(name, phone string) (*database.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	if strings.TrimSpace(name) == "" {
		name = "고객-" + phoneSuffix(phone)
	}
	return s.db.UpsertCustomer(name, phone)
}

// phoneSuffix returns the last four digits of a phone number.
func phoneSuffix(phone string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}

// persist writes the coaching log, archives audio, appends customer
// history, and recomputes the consultant's aggregates. The first failure
// is returned as a *PersistenceError; by then the analysis result already
// exists, so nothing here may block it.
func (s *Session) persist(customer *database.Customer, customerName, customerPhone, category string, feedback *analysis.FeedbackResult) (int64, error) {
	st := s.extracted

	script := feedback.Transcript
	if script == "" {
		script = st.evidence.Script
	}
	if script == "" {
		script = "Audio Analysis"
	}

	// Anonymous sessions keep a captured name in the script text since
	// there is no customer row to link it to.
	if customer == nil && strings.TrimSpace(customerName) != "" {
		script = "[비회원 고객명: " + customerName + "]\n\n" + script
	}

	var audioURL *string
	if len(st.evidence.Audio) > 0 {
		if s.blobs == nil {
			log.Printf("no blob store configured, audio not archived")
		} else {
			ext := extensionForMIME(st.evidence.MIMEType)
			url, err := s.blobs.Upload(st.evidence.Audio, ext)
			if err != nil {
				// Recording archival is best-effort; the log still saves.
				log.Printf("audio upload failed: %v", err)
			} else {
				audioURL = &url
			}
		}
	}

	entry := database.CoachingLog{
		UserID:           s.consultantID,
		ConsultationType: category,
		OriginalScript:   script,
		AudioURL:         audioURL,
		Score:            feedback.Score,
		Metrics:          feedback.Metrics,
		Feedback:         feedback.Feedback,
	}
	if customer != nil {
		entry.CustomerID = &customer.ID
	}

	logID, err := s.db.InsertCoachingLog(entry)
	if err != nil {
		return 0, &PersistenceError{Op: "coaching log", Err: err}
	}

	if customer != nil {
		historyEntry := database.HistoryEntry{
			Date:    time.Now().Format("2006-01-02"),
			Type:    category,
			Summary: st.extraction.Summary,
			Traits:  st.extraction.CustomerTraits,
		}
		if err := s.db.AppendCustomerHistory(customer.ID, historyEntry); err != nil {
			return logID, &PersistenceError{Op: "customer history", Err: err}
		}
	}

	if err := s.aggregator.RecomputeProfile(s.consultantID); err != nil {
		return logID, &PersistenceError{Op: "profile stats", Err: err}
	}

	return logID, nil
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "audio/wav":
		return "wav"
	case "audio/mp4":
		return "m4a"
	default:
		return "mp3"
	}
}
