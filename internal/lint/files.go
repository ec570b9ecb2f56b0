package lint

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"relayfaq/internal/document"
)

// RunFiles lints several documents concurrently and returns all findings
// sorted by file then line. A file that cannot be read or parsed is
// reported as an error rather than an issue.
func RunFiles(ctx context.Context, paths []string) ([]Issue, error) {
	var (
		mu  sync.Mutex
		all []Issue
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("lint %s: %w", path, err)
			}
			doc, err := document.Parse(src)
			if err != nil {
				return fmt.Errorf("lint %s: %w", path, err)
			}
			issues := Run(doc)
			if err := CheckRoundTrip(src); err != nil {
				issues = append(issues, Issue{Rule: RuleRoundTrip, Line: 1, Message: err.Error()})
			}
			for i := range issues {
				issues[i].File = path
			}
			mu.Lock()
			all = append(all, issues...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Line < all[j].Line
	})
	return all, nil
}
