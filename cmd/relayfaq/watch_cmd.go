package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relayfaq/internal/store"
	"relayfaq/internal/watch"
)

func runWatch(cmd *cobra.Command, args []string) error {
	dir := filepath.Dir(cfg.Document)

	var kb *store.Store
	if cfg.Watch.IndexOnChange {
		var err error
		kb, err = store.Open(cfg.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer kb.Close()
	}

	w, err := watch.New(dir, cfg.GetDebounce(), logger)
	if err != nil {
		return err
	}
	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("watching %s (ctrl-c to stop)\n", dir)
	for {
		select {
		case <-cmd.Context().Done():
			st := w.ReadStats()
			fmt.Printf("\n%d change(s), %d lint run(s), %d error(s)\n",
				st.FilesModified, st.LintsRun, st.Errors)
			return nil
		case res := <-w.Results():
			if res.Err != nil {
				fmt.Println(issueStyle.Render(fmt.Sprintf("%s: %v", res.Path, res.Err)))
				continue
			}
			if len(res.Issues) > 0 {
				for _, issue := range res.Issues {
					fmt.Println(issueStyle.Render(issue.String()))
				}
				continue
			}
			fmt.Println(okStyle.Render(res.Path + ": clean"))
			if kb != nil && filepath.Clean(res.Path) == filepath.Clean(cfg.Document) {
				stats, err := kb.Sync(res.Doc, res.Path)
				if err != nil {
					logger.Error("re-index failed", zap.Error(err))
					continue
				}
				fmt.Printf("  re-indexed %d entries (%d updated)\n", stats.Entries, stats.Updated)
			}
		}
	}
}
