package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hyeonsu-an/smartcoach/internal/aggregate"
	"github.com/hyeonsu-an/smartcoach/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the read-only coaching dashboard.
type Server struct {
	db       *database.DB
	agg      *aggregate.Aggregator
	mediaDir string
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server. mediaDir may be empty when no recordings are
// archived locally.
func New(db *database.DB, agg *aggregate.Aggregator, mediaDir string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"score1": func(f float64) string {
			return strconv.FormatFloat(f, 'f', 1, 64)
		},
		"add1": func(i int) int { return i + 1 },
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "consultant.html", "log.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, agg: agg, mediaDir: mediaDir, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Archived recordings
	if s.mediaDir != "" {
		s.mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/consultant/", s.handleConsultant)
	s.mux.HandleFunc("/log/", s.handleLog)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	rankings, err := s.agg.Rankings()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	global, err := s.agg.GlobalAverage()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Daily trend, optionally filtered to one consultation type.
	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}
	daily, err := s.db.GetDailyScoreAverages(category)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	categories, err := s.db.GetActiveConsultationTypes()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	selected := ""
	if category != nil {
		selected = *category
	}
	s.render(w, "index.html", map[string]any{
		"Rankings":         rankings,
		"GlobalAverage":    global,
		"Daily":            daily,
		"Categories":       categories,
		"SelectedCategory": selected,
	})
}

func (s *Server) handleConsultant(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/consultant/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	profile, err := s.db.GetProfile(id)
	if err != nil || profile == nil {
		http.NotFound(w, r)
		return
	}

	stats, err := s.agg.ConsultantStats(id, 20)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "consultant.html", map[string]any{
		"Profile": profile,
		"Stats":   stats,
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/log/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	entry, err := s.db.GetCoachingLog(id)
	if err != nil || entry == nil {
		http.NotFound(w, r)
		return
	}

	var customer *database.Customer
	if entry.CustomerID != nil {
		customer, _ = s.db.GetCustomer(*entry.CustomerID)
	}

	s.render(w, "log.html", map[string]any{
		"Log":      entry,
		"Customer": customer,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, agg *aggregate.Aggregator, mediaDir string, port int) error {
	srv, err := New(db, agg, mediaDir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
