package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"relayfaq/internal/config"
	"relayfaq/internal/document"
	"relayfaq/internal/lint"
	"relayfaq/internal/render"
	"relayfaq/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	docPath    string
	dbPath     string

	cfg    *config.Config
	logger *zap.Logger
)

var (
	issueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "relayfaq",
	Short: "relayfaq - troubleshooting FAQ knowledge base",
	Long: `relayfaq maintains the relay-integration troubleshooting FAQ.

The FAQ itself is a single markdown document. This tool parses it into
question/answer entries, checks its structural integrity (balanced code
fences, no empty answers, well-formed links, unique titles, byte-exact
round-trip), indexes the entries into a SQLite knowledge base, and lets
you look them up, search them, or browse them in the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if docPath != "" {
			cfg.Document = docPath
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if cfg.Logging.Format == "text" {
			zcfg.Encoding = "console"
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// lintCmd checks document integrity
var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Check document integrity",
	Long: `Checks each document for structural problems:
  - balanced-fences:  every opened code fence is closed
  - empty-body:       every heading is followed by body text
  - link-syntax:      every hyperlink has a URL and a label
  - duplicate-title:  entry titles are unique
  - round-trip:       parse + re-emit reproduces the file byte-for-byte

With no arguments, lints the configured document.`,
	RunE: runLint,
}

// titlesCmd lists entry titles
var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "List entry titles in document order",
	RunE:  runTitles,
}

// showCmd renders one entry
var showCmd = &cobra.Command{
	Use:   "show <title>",
	Short: "Render one entry for the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

// searchCmd searches the knowledge base
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search indexed entries by keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

// indexCmd syncs the document into SQLite
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Sync the document into the SQLite knowledge base",
	Long: `Parses the configured document, lints it, and mirrors its entries
into the knowledge base. Entries are matched by title; entries that
disappeared from the document are pruned. Refuses to index a document
with lint issues.`,
	RunE: runIndex,
}

// statsCmd prints knowledge-base statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge-base statistics",
	RunE:  runStats,
}

// watchCmd re-lints on every change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the docs directory and re-lint on change",
	RunE:  runWatch,
}

func runLint(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.Document}
	}

	issues, err := lint.RunFiles(cmd.Context(), paths)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Println(issueStyle.Render(issue.String()))
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d lint issue(s)", len(issues))
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("%d file(s) clean", len(paths))))
	return nil
}

func loadDocument() (*document.Document, error) {
	src, err := os.ReadFile(cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.Document, err)
	}
	return document.Parse(src)
}

func runTitles(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument()
	if err != nil {
		return err
	}
	for i, e := range doc.Entries {
		fmt.Println(render.Summary(i, e.Title, len(e.Snippets), len(e.Links)))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")
	doc, err := loadDocument()
	if err != nil {
		return err
	}
	entry, ok := doc.Lookup(title)
	if !ok {
		// Fall back to prefix match so "show Does OpenZeppelin" works.
		for i := range doc.Entries {
			if strings.HasPrefix(strings.ToLower(doc.Entries[i].Title), strings.ToLower(title)) {
				entry, ok = &doc.Entries[i], true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("no entry titled %q (try 'relayfaq titles')", title)
	}
	fmt.Print(render.New(0).Entry(doc, entry))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	term := strings.Join(args, " ")
	kb, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer kb.Close()

	hits, err := kb.Search(term)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Printf("no entries match %q (is the index current? run 'relayfaq index')\n", term)
		return nil
	}
	for _, hit := range hits {
		fmt.Println(titleStyle.Render(hit.Title))
		fmt.Printf("    line %d, %s\n", hit.Line, excerpt(hit.Body, term))
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(cfg.Document)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Document, err)
	}
	doc, err := document.Parse(src)
	if err != nil {
		return err
	}
	if issues := lint.Run(doc); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Println(issueStyle.Render(issue.String()))
		}
		return fmt.Errorf("refusing to index a document with %d lint issue(s)", len(issues))
	}
	if err := lint.CheckRoundTrip(src); err != nil {
		return err
	}

	kb, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer kb.Close()

	stats, err := kb.Sync(doc, cfg.Document)
	if err != nil {
		return err
	}
	fmt.Println(okStyle.Render(fmt.Sprintf(
		"indexed %d entries (%d updated, %d pruned, %d snippets, %d links) run %s",
		stats.Entries, stats.Updated, stats.Pruned, stats.Snippets, stats.Links, stats.RunID)))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	kb, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer kb.Close()

	st, err := kb.ReadStats()
	if err != nil {
		return err
	}
	fmt.Printf("database:  %s\n", kb.Path())
	fmt.Printf("entries:   %d\n", st.Entries)
	fmt.Printf("snippets:  %d\n", st.Snippets)
	fmt.Printf("links:     %d\n", st.Links)
	fmt.Printf("sync runs: %d\n", st.SyncRuns)
	if !st.LastSync.IsZero() {
		fmt.Printf("last sync: %s\n", st.LastSync.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// excerpt returns a short window of body text around the first match of
// term, for search listings.
func excerpt(body, term string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, strings.ToLower(term))
	if idx < 0 {
		idx = 0
	}
	start := idx - 30
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + 50
	if end > len(body) {
		end = len(body)
	}
	window := strings.Join(strings.Fields(body[start:end]), " ")
	return "…" + window + "…"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "relayfaq.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&docPath, "doc", "", "override the FAQ document path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the knowledge-base path")

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(titlesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(browseCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
