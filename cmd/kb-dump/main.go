// kb-dump inspects a relayfaq knowledge-base file: tables, schema, row
// counts, and sample rows. Debugging aid, not part of the normal CLI.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func main() {
	dbPath := filepath.Join(".relayfaq", "kb.db")
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Printf("No knowledge base at %s (run 'relayfaq index' first)\n", dbPath)
		os.Exit(1)
	}
	dumpDB(dbPath, 10)
}

func dumpDB(dbPath string, limit int) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		return
	}
	defer db.Close()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		fmt.Printf("Error querying tables: %v\n", err)
		return
	}
	var tables []string
	for rows.Next() {
		var name string
		rows.Scan(&name)
		tables = append(tables, name)
	}
	rows.Close()
	fmt.Printf("Tables: %v\n", tables)

	schemaRows, err := db.Query("PRAGMA table_info(faq_entries)")
	if err != nil {
		fmt.Printf("No faq_entries table\n")
		return
	}
	fmt.Printf("\nSchema (faq_entries):\n")
	for schemaRows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt interface{}
		schemaRows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk)
		fmt.Printf("  - %s (%s)\n", name, typ)
	}
	schemaRows.Close()

	rows, err = db.Query(fmt.Sprintf(
		`SELECT position, title, line, content_hash FROM faq_entries ORDER BY position LIMIT %d`, limit))
	if err != nil {
		fmt.Printf("Error querying entries: %v\n", err)
		return
	}
	defer rows.Close()

	fmt.Printf("\nEntries:\n")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for rows.Next() {
		var position, line int
		var title, hash string
		if err := rows.Scan(&position, &title, &line, &hash); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		fmt.Printf("%d. line=%d hash=%s… %s\n", position+1, line, hash[:12], title)
	}

	var entries, snippets, links int
	db.QueryRow("SELECT COUNT(*) FROM faq_entries").Scan(&entries)
	db.QueryRow("SELECT COUNT(*) FROM faq_snippets").Scan(&snippets)
	db.QueryRow("SELECT COUNT(*) FROM faq_links").Scan(&links)
	fmt.Printf("\nTotal entries: %d, snippets: %d, links: %d\n", entries, snippets, links)

	runRows, err := db.Query("SELECT id, source, entries, created_at FROM sync_runs ORDER BY created_at DESC LIMIT 5")
	if err == nil {
		fmt.Println("\nRecent sync runs:")
		for runRows.Next() {
			var id, source, created string
			var count int
			runRows.Scan(&id, &source, &count, &created)
			fmt.Printf("  %s  %s (%d entries) at %s\n", id, source, count, created)
		}
		runRows.Close()
	}
}
