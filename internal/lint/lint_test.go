package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayfaq/internal/document"
)

func mustParse(t *testing.T, src string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func rules(issues []Issue) []string {
	var out []string
	for _, i := range issues {
		out = append(out, i.Rule)
	}
	return out
}

func TestRunCleanDocument(t *testing.T) {
	doc := mustParse(t, "# T\n\nintro\n\n## Q?\n\nanswer with [ref](https://example.com).\n\n```bash\nls\n```\n")
	assert.Empty(t, Run(doc))
}

func TestBalancedFences(t *testing.T) {
	t.Run("unterminated fence reported at opening line", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\n```bash\necho hi\n")
		issues := Run(doc)
		require.Contains(t, rules(issues), RuleBalancedFences)
		for _, i := range issues {
			if i.Rule == RuleBalancedFences {
				assert.Equal(t, 7, i.Line)
			}
		}
	})

	t.Run("info string does not close a fence", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\n```bash\necho hi\n```js\n")
		issues := Run(doc)
		assert.Contains(t, rules(issues), RuleBalancedFences)
	})

	t.Run("tilde and backtick fences are independent", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\n~~~\n```\n~~~\n")
		assert.NotContains(t, rules(Run(doc)), RuleBalancedFences)
	})
}

func TestEmptyBody(t *testing.T) {
	t.Run("heading directly followed by heading", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n## R?\n\nanswer\n")
		issues := Run(doc)
		require.Contains(t, rules(issues), RuleEmptyBody)
		for _, i := range issues {
			if i.Rule == RuleEmptyBody {
				assert.Equal(t, 5, i.Line)
				assert.Contains(t, i.Message, "Q?")
			}
		}
	})

	t.Run("heading at end of file", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n")
		assert.Contains(t, rules(Run(doc)), RuleEmptyBody)
	})

	t.Run("whitespace-only body counts as empty", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\n   \n\n## R?\n\nanswer\n")
		assert.Contains(t, rules(Run(doc)), RuleEmptyBody)
	})
}

func TestLinkSyntax(t *testing.T) {
	t.Run("empty URL", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\nsee [tracker]().\n")
		issues := Run(doc)
		require.Contains(t, rules(issues), RuleLinkSyntax)
	})

	t.Run("empty label", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nx\n\n## Q?\n\nsee [](https://example.com).\n")
		issues := Run(doc)
		require.Contains(t, rules(issues), RuleLinkSyntax)
	})

	t.Run("prologue links are checked too", func(t *testing.T) {
		doc := mustParse(t, "# T\n\nsee []().\n\n## Q?\n\nanswer\n")
		assert.Contains(t, rules(Run(doc)), RuleLinkSyntax)
	})
}

func TestDuplicateTitle(t *testing.T) {
	doc := mustParse(t, "# T\n\nx\n\n## Q?\n\none\n\n## Q?\n\ntwo\n")
	issues := Run(doc)
	require.Contains(t, rules(issues), RuleDuplicateTitle)
	for _, i := range issues {
		if i.Rule == RuleDuplicateTitle {
			assert.Equal(t, 9, i.Line)
			assert.Contains(t, i.Message, "line 5")
		}
	}
}

func TestCheckRoundTrip(t *testing.T) {
	src := []byte("# T\n\nx\n\n## Q?\n\nanswer\n")
	assert.NoError(t, CheckRoundTrip(src))
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()

	clean := filepath.Join(dir, "clean.md")
	require.NoError(t, os.WriteFile(clean, []byte("# T\n\nx\n\n## Q?\n\nanswer\n"), 0644))
	broken := filepath.Join(dir, "broken.md")
	require.NoError(t, os.WriteFile(broken, []byte("# T\n\nx\n\n## Q?\n\n```bash\nno close\n"), 0644))

	issues, err := RunFiles(context.Background(), []string{clean, broken})
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	for _, i := range issues {
		assert.Equal(t, broken, i.File)
	}

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := RunFiles(context.Background(), []string{filepath.Join(dir, "absent.md")})
		assert.Error(t, err)
	})
}

func TestFAQDocumentIsClean(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "docs", "faq.md"))
	require.NoError(t, err)

	doc, err := document.Parse(src)
	require.NoError(t, err)

	assert.Empty(t, Run(doc))
	assert.NoError(t, CheckRoundTrip(src))
}
