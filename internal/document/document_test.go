package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `# Guide

Intro.

## First question?

Answer one with a [link](https://example.com/bug).

` + "```js" + `
console.log(1);
` + "```" + `

## Second question?

Answer two.
`

func TestParseFixture(t *testing.T) {
	doc, err := Parse([]byte(fixture))
	require.NoError(t, err)

	t.Run("titles in order", func(t *testing.T) {
		want := []string{"First question?", "Second question?"}
		if diff := cmp.Diff(want, doc.Titles()); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("headings include the document title", func(t *testing.T) {
		require.Len(t, doc.Headings, 3)
		assert.Equal(t, 1, doc.Headings[0].Level)
		assert.Equal(t, "Guide", doc.Headings[0].Text)
		assert.Equal(t, 1, doc.Headings[0].Line)
	})

	t.Run("entry capture", func(t *testing.T) {
		first := doc.Entries[0]
		assert.Equal(t, 5, first.Line)
		assert.Contains(t, first.Body, "Answer one")

		require.Len(t, first.Snippets, 1)
		snip := first.Snippets[0]
		assert.Equal(t, "js", snip.Language)
		assert.Equal(t, "console.log(1);\n", snip.Content)
		assert.Equal(t, 9, snip.StartLine)
		assert.Equal(t, 11, snip.EndLine)

		require.Len(t, first.Links, 1)
		assert.Equal(t, "link", first.Links[0].Label)
		assert.Equal(t, "https://example.com/bug", first.Links[0].URL)
		assert.Equal(t, 7, first.Links[0].Line)

		second := doc.Entries[1]
		assert.Equal(t, "Answer two.", second.Body)
		assert.Empty(t, second.Snippets)
	})

	t.Run("lookup", func(t *testing.T) {
		e, ok := doc.Lookup("Second question?")
		require.True(t, ok)
		assert.Equal(t, "Second question?", e.Title)

		_, ok = doc.Lookup("second question?")
		assert.False(t, ok, "lookup is exact, not case-insensitive")
	})

	t.Run("round trip", func(t *testing.T) {
		assert.True(t, bytes.Equal([]byte(fixture), doc.Bytes()))
	})

	t.Run("raw includes heading", func(t *testing.T) {
		raw := string(doc.Raw(&doc.Entries[1]))
		assert.Contains(t, raw, "## Second question?")
		assert.Contains(t, raw, "Answer two.")
	})
}

func TestParseFAQDocument(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "docs", "faq.md"))
	require.NoError(t, err)

	doc, err := Parse(src)
	require.NoError(t, err)

	want := []string{
		"Does OpenZeppelin support GSN?",
		"How do I use an Ethers.js v6 signer with the relay provider?",
		"Why do relayed transactions fail signature validation on Ganache?",
		"Why does the relay client throw a paymaster Hub version mismatch?",
		`Why does my contract revert with "forwarder is not trusted"?`,
		"Why do my tests fail with a relayMaxNonce error after the first test?",
		`How do I fix webpack's "can't resolve 'fs'" error?`,
	}
	if diff := cmp.Diff(want, doc.Titles()); diff != "" {
		t.Fatalf("FAQ titles mismatch (-want +got):\n%s", diff)
	}

	t.Run("round trip is byte exact", func(t *testing.T) {
		require.True(t, bytes.Equal(src, doc.Bytes()))
	})

	t.Run("snippet languages", func(t *testing.T) {
		langs := make(map[string]int)
		for _, s := range doc.Snippets {
			langs[s.Language]++
		}
		for _, lang := range []string{"solidity", "typescript", "js", "bash"} {
			assert.Greater(t, langs[lang], 0, "expected at least one %s snippet", lang)
		}
	})

	t.Run("every entry is self-contained", func(t *testing.T) {
		for _, e := range doc.Entries {
			assert.NotEmpty(t, e.Body, "entry %q has no answer", e.Title)
		}
	})

	t.Run("external references parsed", func(t *testing.T) {
		e, ok := doc.Lookup("Does OpenZeppelin support GSN?")
		require.True(t, ok)
		require.NotEmpty(t, e.Links)
		assert.Contains(t, e.Links[0].URL, "github.com/OpenZeppelin")
	})
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := Parse(nil)
		assert.Error(t, err)
	})

	t.Run("no entries", func(t *testing.T) {
		src := []byte("# Only a title\n\nSome prose.\n")
		doc, err := Parse(src)
		require.NoError(t, err)
		assert.Empty(t, doc.Entries)
		assert.True(t, bytes.Equal(src, doc.Bytes()))
	})

	t.Run("no trailing newline", func(t *testing.T) {
		src := []byte("# T\n\nx\n\n## Q?\n\nanswer")
		doc, err := Parse(src)
		require.NoError(t, err)
		require.Len(t, doc.Entries, 1)
		assert.Equal(t, "answer", doc.Entries[0].Body)
		assert.True(t, bytes.Equal(src, doc.Bytes()))
	})

	t.Run("unterminated fence still round-trips", func(t *testing.T) {
		src := []byte("# T\n\nx\n\n## Q?\n\n```bash\necho hi\n")
		doc, err := Parse(src)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(src, doc.Bytes()))
	})

	t.Run("untagged fence", func(t *testing.T) {
		src := []byte("# T\n\nx\n\n## Q?\n\n```\nplain\n```\n")
		doc, err := Parse(src)
		require.NoError(t, err)
		require.Len(t, doc.Entries[0].Snippets, 1)
		snip := doc.Entries[0].Snippets[0]
		assert.Equal(t, "", snip.Language)
		assert.Equal(t, "plain\n", snip.Content)
		assert.Equal(t, 7, snip.StartLine)
	})

	t.Run("level-3 headings stay inside the entry", func(t *testing.T) {
		src := []byte("# T\n\nx\n\n## Q?\n\nanswer\n\n### Detail\n\nmore\n\n## R?\n\nother\n")
		doc, err := Parse(src)
		require.NoError(t, err)
		require.Len(t, doc.Entries, 2)
		assert.Contains(t, doc.Entries[0].Body, "### Detail")
		assert.True(t, bytes.Equal(src, doc.Bytes()))
	})
}
