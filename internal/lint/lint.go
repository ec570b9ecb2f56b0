// Package lint checks the integrity of a FAQ document. The rules are
// purely structural: balanced code fences, no heading without body text,
// well-formed hyperlinks, and no duplicate entry titles. Nothing here
// executes snippets or dereferences links.
package lint

import (
	"bytes"
	"fmt"
	"strings"

	"relayfaq/internal/document"
)

// Rule names, stable for machine consumption of lint output.
const (
	RuleBalancedFences = "balanced-fences"
	RuleEmptyBody      = "empty-body"
	RuleLinkSyntax     = "link-syntax"
	RuleDuplicateTitle = "duplicate-title"
	RuleRoundTrip      = "round-trip"
)

// Issue is one lint finding.
type Issue struct {
	Rule    string
	File    string
	Line    int
	Message string
}

func (i Issue) String() string {
	if i.File != "" {
		return fmt.Sprintf("%s:%d: %s: %s", i.File, i.Line, i.Rule, i.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Rule, i.Message)
}

// Run applies every rule to the document and returns the findings in
// rule order. A clean document yields a nil slice.
func Run(doc *document.Document) []Issue {
	var issues []Issue
	issues = append(issues, checkFences(doc.Source())...)
	issues = append(issues, checkBodies(doc)...)
	issues = append(issues, checkLinks(doc)...)
	issues = append(issues, checkDuplicateTitles(doc)...)
	return issues
}

// CheckRoundTrip verifies that parsing and re-emitting src reproduces it
// byte-for-byte.
func CheckRoundTrip(src []byte) error {
	doc, err := document.Parse(src)
	if err != nil {
		return err
	}
	if out := doc.Bytes(); !bytes.Equal(out, src) {
		return fmt.Errorf("%s: re-emitted document differs from source (%d bytes in, %d bytes out)",
			RuleRoundTrip, len(src), len(out))
	}
	return nil
}

// checkFences scans the raw text for fence delimiters and reports any
// fence still open at end of file. It works on raw bytes rather than the
// parsed tree because an unterminated fence swallows the rest of the
// document during parsing, hiding its own location.
func checkFences(src []byte) []Issue {
	var issues []Issue
	openLine := 0
	var openMarker byte
	openLen := 0

	for lineNo, line := range strings.Split(string(src), "\n") {
		marker, length := fenceDelimiter(line)
		if marker == 0 {
			continue
		}
		if openLine == 0 {
			openLine, openMarker, openLen = lineNo+1, marker, length
			continue
		}
		// A closing fence uses the same marker, is at least as long as
		// the opener, and carries no info string.
		rest := strings.TrimLeft(strings.TrimSpace(line), string(openMarker))
		if marker == openMarker && length >= openLen && strings.TrimSpace(rest) == "" {
			openLine = 0
		}
	}

	if openLine != 0 {
		issues = append(issues, Issue{
			Rule:    RuleBalancedFences,
			Line:    openLine,
			Message: "code fence opened here is never closed",
		})
	}
	return issues
}

// fenceDelimiter reports the fence marker and run length if the line is a
// fence delimiter (three or more backticks or tildes, indented at most
// three spaces), or 0 otherwise.
func fenceDelimiter(line string) (byte, int) {
	trimmed := line
	for i := 0; i < 3 && strings.HasPrefix(trimmed, " "); i++ {
		trimmed = trimmed[1:]
	}
	if len(trimmed) < 3 {
		return 0, 0
	}
	marker := trimmed[0]
	if marker != '`' && marker != '~' {
		return 0, 0
	}
	length := 0
	for length < len(trimmed) && trimmed[length] == marker {
		length++
	}
	if length < 3 {
		return 0, 0
	}
	return marker, length
}

// checkBodies requires non-empty body text between each heading and the
// next heading (of any level) or end of file.
func checkBodies(doc *document.Document) []Issue {
	var issues []Issue
	src := doc.Source()

	for i, h := range doc.Headings {
		if h.Start < 0 {
			issues = append(issues, Issue{
				Rule:    RuleEmptyBody,
				Line:    h.Line,
				Message: "heading has no text",
			})
			continue
		}
		bodyStart := lineEnd(src, h.Start)
		bodyEnd := len(src)
		for _, next := range doc.Headings[i+1:] {
			if next.Start >= 0 {
				bodyEnd = next.Start
				break
			}
		}
		if strings.TrimSpace(string(src[bodyStart:bodyEnd])) == "" {
			issues = append(issues, Issue{
				Rule:    RuleEmptyBody,
				Line:    h.Line,
				Message: fmt.Sprintf("heading %q has no body text", h.Text),
			})
		}
	}
	return issues
}

// checkLinks requires every hyperlink to have a non-empty URL and a
// non-empty label.
func checkLinks(doc *document.Document) []Issue {
	var issues []Issue
	for _, l := range doc.Links {
		if l.URL == "" {
			issues = append(issues, Issue{
				Rule:    RuleLinkSyntax,
				Line:    l.Line,
				Message: fmt.Sprintf("link %q has an empty URL", l.Label),
			})
		}
		if strings.TrimSpace(l.Label) == "" {
			issues = append(issues, Issue{
				Rule:    RuleLinkSyntax,
				Line:    l.Line,
				Message: fmt.Sprintf("link to %q has an empty label", l.URL),
			})
		}
	}
	return issues
}

// checkDuplicateTitles requires entry titles to be unique so that
// lookup-by-title is an identity.
func checkDuplicateTitles(doc *document.Document) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(doc.Entries))
	for _, e := range doc.Entries {
		if first, ok := seen[e.Title]; ok {
			issues = append(issues, Issue{
				Rule:    RuleDuplicateTitle,
				Line:    e.Line,
				Message: fmt.Sprintf("title %q duplicates the entry at line %d", e.Title, first),
			})
			continue
		}
		seen[e.Title] = e.Line
	}
	return issues
}

func lineEnd(src []byte, start int) int {
	if i := bytes.IndexByte(src[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(src)
}
