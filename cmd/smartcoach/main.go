package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hyeonsu-an/smartcoach/internal/aggregate"
	"github.com/hyeonsu-an/smartcoach/internal/analysis"
	"github.com/hyeonsu-an/smartcoach/internal/assemble"
	"github.com/hyeonsu-an/smartcoach/internal/blob"
	"github.com/hyeonsu-an/smartcoach/internal/config"
	"github.com/hyeonsu-an/smartcoach/internal/database"
	"github.com/hyeonsu-an/smartcoach/internal/extract"
	"github.com/hyeonsu-an/smartcoach/internal/llm"
	"github.com/hyeonsu-an/smartcoach/internal/refine"
	"github.com/hyeonsu-an/smartcoach/internal/server"
	"github.com/hyeonsu-an/smartcoach/internal/session"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "smartcoach",
	Short:   "AI coaching for customer consultations",
	Long:    "SmartCoach analyzes consultation scripts and recordings, scores them against mandatory guidelines, and tracks consultant growth.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(guidelineCmd)
	rootCmd.AddCommand(referenceCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(consultantCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("smartcoach", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/smartcoach/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the LLM provider and API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Content:")
		fmt.Printf("  Consultants: %d\n", stats.Profiles)
		fmt.Printf("  Customers: %d\n", stats.Customers)
		fmt.Printf("  Coaching logs: %d\n", stats.CoachingLogs)
		fmt.Println("\nKnowledge base:")
		fmt.Printf("  Guidelines: %d\n", stats.Guidelines)
		fmt.Printf("  References: %d\n", stats.References)
		fmt.Printf("  Active categories: %d\n", stats.ActiveCategories)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		store, err := blob.NewLocalStore(cfg.GetDataDir())
		if err != nil {
			return fmt.Errorf("opening media store: %w", err)
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, aggregate.New(db), store.Dir(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- coach command ---

var (
	coachScript     string
	coachScriptFile string
	coachAudio      string
	coachConsultant string
	coachName       string
	coachPhone      string
	coachCategory   string
	coachDropRefs   []int64
)

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Analyze a consultation and store the coaching result",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		profile, err := resolveConsultant(db, coachConsultant)
		if err != nil {
			return err
		}

		ev, err := buildEvidence()
		if err != nil {
			return err
		}

		store, err := blob.NewLocalStore(cfg.GetDataDir())
		if err != nil {
			return fmt.Errorf("opening media store: %w", err)
		}

		engine := analysis.New(newProvider(), cfg.Inference.MaxTokens, cfg.Inference.Timeout())
		sess := session.New(db, engine, assemble.New(db), aggregate.New(db), store, profile.ID)
		ctx := context.Background()

		fmt.Println("Extracting topics and customer info...")
		if err := sess.SubmitInput(ctx, ev); err != nil {
			return err
		}

		extraction := sess.Extraction()
		fmt.Printf("\nSummary: %s\n", extraction.Summary)
		fmt.Printf("Topics: %s\n", strings.Join(extraction.Topics, ", "))
		fmt.Printf("Customer traits: %s\n", extraction.CustomerTraits)

		checklist := sess.Checklist()
		for _, id := range coachDropRefs {
			checklist.Deselect(id)
		}
		if items := checklist.Items(); len(items) > 0 {
			fmt.Println("\nReference documents:")
			for _, item := range items {
				mark := " "
				if item.Selected {
					mark = "x"
				}
				fmt.Printf("  [%s] %d: %s\n", mark, item.ID, item.Title)
			}
		}

		name := coachName
		if name == "" && extraction.CustomerName != nil {
			name = *extraction.CustomerName
		}
		phone := coachPhone
		if phone == "" && extraction.CustomerPhone != nil {
			phone = *extraction.CustomerPhone
		}
		category := coachCategory
		if category == "" && len(extraction.Topics) > 0 {
			category = extraction.Topics[0]
		}

		fmt.Println("\nAnalyzing consultation...")
		result, err := sess.ConfirmAndAnalyze(ctx, name, phone, category, checklist.FinalIDs())
		if err != nil {
			var pe *session.PersistenceError
			if !errors.As(err, &pe) {
				return err
			}
			fmt.Printf("\nWarning: result not fully saved: %v\n", pe)
		}

		fmt.Printf("\nScore: %d (compliance %d / empathy %d / clarity %d)\n",
			result.Score, result.Metrics.Compliance, result.Metrics.Empathy, result.Metrics.Clarity)
		fmt.Println("\n" + result.Feedback)
		if sess.LogID() != 0 {
			fmt.Printf("\nSaved as log %d. View it with: smartcoach serve\n", sess.LogID())
		}
		return nil
	},
}

func init() {
	coachCmd.Flags().StringVar(&coachScript, "script", "", "Consultation script text")
	coachCmd.Flags().StringVar(&coachScriptFile, "script-file", "", "Path to a consultation script file")
	coachCmd.Flags().StringVar(&coachAudio, "audio", "", "Path to a consultation recording (mp3/wav/m4a)")
	coachCmd.Flags().StringVar(&coachConsultant, "consultant", "", "Consultant profile ID or email")
	coachCmd.Flags().StringVar(&coachName, "name", "", "Customer name (overrides extraction)")
	coachCmd.Flags().StringVar(&coachPhone, "phone", "", "Customer phone (overrides extraction)")
	coachCmd.Flags().StringVar(&coachCategory, "category", "", "Consultation category (defaults to the extracted topic)")
	coachCmd.Flags().Int64SliceVar(&coachDropRefs, "drop-ref", nil, "Recommended reference ID to exclude (repeatable)")
	coachCmd.MarkFlagRequired("consultant")
}

func buildEvidence() (analysis.Evidence, error) {
	var ev analysis.Evidence

	switch {
	case coachScript != "":
		ev.Script = coachScript
	case coachScriptFile != "":
		data, err := os.ReadFile(coachScriptFile)
		if err != nil {
			return ev, fmt.Errorf("reading script file: %w", err)
		}
		ev.Script = string(data)
	}

	if coachAudio != "" {
		data, err := os.ReadFile(coachAudio)
		if err != nil {
			return ev, fmt.Errorf("reading audio file: %w", err)
		}
		ev.Audio = data
		ev.MIMEType = analysis.AudioMIMEType(coachAudio)
	}

	return ev, nil
}

// --- guideline command ---

var guidelineCmd = &cobra.Command{
	Use:   "guideline",
	Short: "Manage consultation guidelines",
}

var guidelineAddCmd = &cobra.Command{
	Use:   "add [category] [instruction]",
	Short: "Refine a raw instruction into a guideline and store it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		category, raw := args[0], args[1]
		if err := mustCategory(db, category); err != nil {
			return err
		}

		refiner := refine.New(newProvider(), cfg.Inference.MaxTokens, cfg.Inference.Timeout())
		refined, err := refiner.Guideline(context.Background(), category, raw)
		if err != nil {
			return err
		}

		id, err := db.InsertGuideline(category, raw, refined)
		if err != nil {
			return err
		}
		fmt.Printf("Added guideline [%d] for %s:\n\n%s\n", id, category, refined)
		return nil
	},
}

var guidelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all guidelines",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllGuidelines()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No guidelines defined. Add one with: smartcoach guideline add")
			return nil
		}

		for _, g := range items {
			icon := " "
			if g.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s %s: %s\n", g.ID, icon, g.Category, firstLine(g.RefinedContent))
		}
		return nil
	},
}

func init() {
	guidelineCmd.AddCommand(guidelineAddCmd)
	guidelineCmd.AddCommand(guidelineListCmd)
}

// --- reference command ---

var (
	refFile    string
	refContent string
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage fact-check reference documents",
}

var referenceAddCmd = &cobra.Command{
	Use:   "add [category] [title]",
	Short: "Add a reference document and summarize its usage context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		category, title := args[0], args[1]
		if err := mustCategory(db, category); err != nil {
			return err
		}

		content := refContent
		if refFile != "" {
			data, err := os.ReadFile(refFile)
			if err != nil {
				return fmt.Errorf("reading reference file: %w", err)
			}
			content, err = extract.Text(refFile, data)
			if err != nil {
				return err
			}
		}
		if content == "" {
			return fmt.Errorf("provide document content via --content or --file")
		}

		refiner := refine.New(newProvider(), cfg.Inference.MaxTokens, cfg.Inference.Timeout())
		summary, err := refiner.ReferenceUsage(context.Background(), content)
		if err != nil {
			return err
		}

		id, err := db.InsertReference(category, title, &content, &summary, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Added reference [%d] %s\n  Usage: %s\n", id, title, summary)
		return nil
	},
}

var referenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active reference documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetActiveReferences(nil)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No reference documents. Add one with: smartcoach reference add")
			return nil
		}

		for _, r := range items {
			summary := ""
			if r.Summary != nil {
				summary = *r.Summary
			}
			fmt.Printf("  [%d] %s: %s (%s)\n", r.ID, r.Category, r.Title, summary)
		}
		return nil
	},
}

var referenceDeactivateCmd = &cobra.Command{
	Use:   "deactivate [id]",
	Short: "Deactivate a reference document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reference ID: %s", args[0])
		}

		ref, err := db.GetReference(id)
		if err != nil {
			return err
		}
		if ref == nil {
			return fmt.Errorf("reference %d not found", id)
		}

		if err := db.DeactivateReference(id); err != nil {
			return err
		}
		fmt.Printf("Deactivated reference [%d]: %s\n", id, ref.Title)
		return nil
	},
}

func init() {
	referenceAddCmd.Flags().StringVar(&refFile, "file", "", "Extract content from a file (pdf/docx/txt/html)")
	referenceAddCmd.Flags().StringVar(&refContent, "content", "", "Document content as text")
	referenceCmd.AddCommand(referenceAddCmd)
	referenceCmd.AddCommand(referenceListCmd)
	referenceCmd.AddCommand(referenceDeactivateCmd)
}

// --- category command ---

var categoryDescription string

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage consultation categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name] [display-name]",
	Short: "Add a consultation category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var desc *string
		if categoryDescription != "" {
			desc = &categoryDescription
		}
		if _, err := db.InsertConsultationType(args[0], args[1], desc); err != nil {
			return err
		}
		fmt.Printf("Added category %s (%s)\n", args[0], args[1])
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllConsultationTypes()
		if err != nil {
			return err
		}
		for _, c := range items {
			icon := " "
			if c.IsActive {
				icon = "*"
			}
			fmt.Printf("  %s %s (%s)\n", icon, c.Name, c.DisplayName)
		}
		return nil
	},
}

var categoryDeactivateCmd = &cobra.Command{
	Use:   "deactivate [name]",
	Short: "Deactivate a category (past logs keep its name)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ct, err := db.GetConsultationType(args[0])
		if err != nil {
			return err
		}
		if ct == nil {
			return fmt.Errorf("category %q not found", args[0])
		}

		if err := db.DeactivateConsultationType(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deactivated category %s\n", args[0])
		return nil
	},
}

func init() {
	categoryAddCmd.Flags().StringVar(&categoryDescription, "description", "", "Category description")
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryDeactivateCmd)
}

// --- consultant command ---

var consultantDepartment string

var consultantCmd = &cobra.Command{
	Use:   "consultant",
	Short: "Manage consultant profiles",
}

var consultantAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Add a consultant profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var dept *string
		if consultantDepartment != "" {
			dept = &consultantDepartment
		}

		id := uuid.NewString()
		if err := db.InsertProfile(id, args[0], false, dept); err != nil {
			return err
		}
		fmt.Printf("Added consultant %s (%s)\n", args[0], id)
		return nil
	},
}

var consultantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List consultants ranked by average score",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		rankings, err := aggregate.New(db).Rankings()
		if err != nil {
			return err
		}
		if len(rankings) == 0 {
			fmt.Println("No consultants. Add one with: smartcoach consultant add")
			return nil
		}

		for i, r := range rankings {
			fmt.Printf("  %d. %s  avg %.1f  (%d logs, growth %+.1f)\n",
				i+1, r.Profile.Email, r.Profile.AvgScore, r.Profile.TotalCoachingCount, r.Growth)
		}
		return nil
	},
}

var consultantStatsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Show a consultant's coaching statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		profile, err := db.GetProfile(args[0])
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("consultant %q not found", args[0])
		}

		stats, err := aggregate.New(db).ConsultantStats(profile.ID, 10)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", profile.Email)
		fmt.Printf("  Lifetime average: %.1f over %d logs\n", profile.AvgScore, profile.TotalCoachingCount)
		fmt.Printf("  Recent average: %.1f\n", stats.RecentAvg)
		if len(stats.CategoryCounts) > 0 {
			fmt.Println("  By category:")
			for cat, n := range stats.CategoryCounts {
				fmt.Printf("    %s: %d\n", cat, n)
			}
		}
		if len(stats.RecentLogs) > 0 {
			fmt.Println("  Recent logs:")
			for _, l := range stats.RecentLogs {
				fmt.Printf("    [%d] %s score %d\n", l.ID, l.ConsultationType, l.Score)
			}
		}
		return nil
	},
}

func init() {
	consultantAddCmd.Flags().StringVar(&consultantDepartment, "department", "", "Consultant department")
	consultantCmd.AddCommand(consultantAddCmd)
	consultantCmd.AddCommand(consultantListCmd)
	consultantCmd.AddCommand(consultantStatsCmd)
}

// --- helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "smartcoach.db")
	return database.Open(dbPath)
}

func newProvider() llm.Provider {
	inf := cfg.Inference
	return llm.CreateProvider(inf.Provider, inf.Model, inf.APIKeyEnv,
		inf.OpenAIModel, inf.OpenAIKeyEnv, inf.OllamaModel, inf.OllamaURL)
}

// resolveConsultant accepts either a profile ID or an email.
func resolveConsultant(db *database.DB, idOrEmail string) (*database.Profile, error) {
	profile, err := db.GetProfile(idOrEmail)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	all, err := db.GetAllProfiles()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Email == idOrEmail {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("consultant %q not found (add one with: smartcoach consultant add)", idOrEmail)
}

// mustCategory rejects admin writes against unknown or inactive categories.
func mustCategory(db *database.DB, name string) error {
	ct, err := db.GetConsultationType(name)
	if err != nil {
		return err
	}
	if ct == nil || !ct.IsActive {
		return fmt.Errorf("category %q is not active (see: smartcoach category list)", name)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if runes := []rune(s); len(runes) > 70 {
		s = string(runes[:70]) + "..."
	}
	return s
}
