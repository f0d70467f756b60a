package database

// Profile is a consultant account and the aggregate root for stats.
// TotalCoachingCount and AvgScore are recomputed from coaching_logs,
// never patched incrementally.
type Profile struct {
	ID                 string
	Email              string
	IsAdmin            bool
	Department         *string
	TotalCoachingCount int
	AvgScore           float64
	CreatedAt          *string
}

// Customer is a phone-identified customer with an embedded consultation
// history. Anonymous sessions never create one.
type Customer struct {
	ID                   int64
	Name                 string
	Phone                string
	ConsultationHistory  []HistoryEntry
	LastConsultationDate *string
}

// HistoryEntry is one completed consultation in a customer's history.
type HistoryEntry struct {
	Date    string `json:"date"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
	Traits  string `json:"extracted_traits"`
}

// ConsultationType is a coaching category. Deactivation flips is_active;
// the display name is never rewritten so historical logs keep meaning.
type ConsultationType struct {
	ID          int64
	Name        string
	DisplayName string
	Description *string
	IsActive    bool
}

// Guideline is an admin instruction refined into a consultant-facing script.
type Guideline struct {
	ID             int64
	Category       string
	RawInput       string
	RefinedContent string
	IsActive       bool
}

// Reference is a fact-check source (regulation, law, manual excerpt).
type Reference struct {
	ID       int64
	Category string
	Title    string
	Content  *string
	Summary  *string
	FileURL  *string
	IsActive bool
}

// CoachingLog is the immutable record of one completed coaching session.
type CoachingLog struct {
	ID               int64
	UserID           string
	CustomerID       *int64
	ConsultationType string
	OriginalScript   string
	AudioURL         *string
	Score            int
	Metrics          Metrics
	Feedback         string
	CreatedAt        *string
}

// Metrics are the three coaching sub-scores, each 0-100.
type Metrics struct {
	Compliance int
	Empathy    int
	Clarity    int
}
