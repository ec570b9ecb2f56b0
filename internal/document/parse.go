package document

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse reads a markdown FAQ document into a Document. The input bytes
// are retained unmodified; Parse never alters or normalizes them.
func Parse(source []byte) (*Document, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("document: empty input")
	}

	p := &parseState{
		source: source,
		lines:  lineOffsets(source),
	}

	root := goldmark.New().Parser().Parse(text.NewReader(source))
	if err := ast.Walk(root, p.visit); err != nil {
		return nil, fmt.Errorf("document: walk failed: %w", err)
	}

	return p.build()
}

// parseState accumulates positioned nodes during the AST walk, then
// assembles them into entries by byte-offset containment.
type parseState struct {
	source []byte
	lines  []int // byte offset of each line start

	headings []Heading
	snippets []positioned[Snippet]
	links    []positioned[Link]
}

type positioned[T any] struct {
	offset int
	value  T
}

func (p *parseState) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.Heading:
		p.addHeading(node)
	case *ast.FencedCodeBlock:
		p.addSnippet(node)
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		p.addLink(node)
		return ast.WalkSkipChildren, nil
	case *ast.AutoLink:
		url := string(node.URL(p.source))
		p.links = append(p.links, positioned[Link]{
			offset: p.nodeOffset(n),
			value:  Link{Label: url, URL: url, Line: p.lineAt(p.nodeOffset(n))},
		})
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (p *parseState) addHeading(node *ast.Heading) {
	if node.Lines().Len() == 0 {
		// Heading with no text; it cannot delimit an entry.
		p.headings = append(p.headings, Heading{Level: node.Level, Start: -1})
		return
	}
	seg := node.Lines().At(0)
	line := p.lineAt(seg.Start)
	var sb strings.Builder
	for i := 0; i < node.Lines().Len(); i++ {
		s := node.Lines().At(i)
		sb.Write(s.Value(p.source))
	}
	p.headings = append(p.headings, Heading{
		Level: node.Level,
		Text:  strings.TrimSpace(sb.String()),
		Line:  line,
		Start: p.lines[line-1],
	})
}

func (p *parseState) addSnippet(node *ast.FencedCodeBlock) {
	var content strings.Builder
	for i := 0; i < node.Lines().Len(); i++ {
		s := node.Lines().At(i)
		content.Write(s.Value(p.source))
	}

	snip := Snippet{
		Language: string(node.Language(p.source)),
		Content:  content.String(),
	}

	// Locate the opening fence. The info string sits on the fence line;
	// untagged blocks fall back to the line above the first content line.
	offset := -1
	if node.Info != nil {
		offset = node.Info.Segment.Start
		snip.StartLine = p.lineAt(offset)
	} else if node.Lines().Len() > 0 {
		offset = node.Lines().At(0).Start
		snip.StartLine = p.lineAt(offset) - 1
	}
	if node.Lines().Len() > 0 {
		last := node.Lines().At(node.Lines().Len() - 1)
		snip.EndLine = p.lineAt(last.Stop-1) + 1
	} else if snip.StartLine > 0 {
		snip.EndLine = snip.StartLine + 1
	}

	p.snippets = append(p.snippets, positioned[Snippet]{offset: offset, value: snip})
}

func (p *parseState) addLink(node *ast.Link) {
	offset := p.nodeOffset(node)
	p.links = append(p.links, positioned[Link]{
		offset: offset,
		value: Link{
			Label: p.childText(node),
			URL:   string(node.Destination),
			Line:  p.lineAt(offset),
		},
	})
}

// nodeOffset returns the byte offset of the first text segment under n,
// or the end of the file when the node carries no text at all.
func (p *parseState) nodeOffset(n ast.Node) int {
	offset := len(p.source) - 1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			offset = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return offset
}

func (p *parseState) childText(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(p.source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// build slices the source into a prologue plus one raw span per entry and
// attaches snippets and links to the entry whose span contains them.
func (p *parseState) build() (*Document, error) {
	sort.Slice(p.snippets, func(i, j int) bool { return p.snippets[i].offset < p.snippets[j].offset })
	sort.Slice(p.links, func(i, j int) bool { return p.links[i].offset < p.links[j].offset })

	doc := &Document{
		Headings: p.headings,
		source:   p.source,
	}
	for _, s := range p.snippets {
		doc.Snippets = append(doc.Snippets, s.value)
	}
	for _, l := range p.links {
		doc.Links = append(doc.Links, l.value)
	}

	// Entry boundaries: each level-2 heading starts an entry; the entry
	// runs until the next level-2 heading or EOF. Only level-2 headings
	// delimit, so the prologue plus the entry spans always partition the
	// file and Bytes() loses nothing.
	type bound struct {
		heading Heading
		end     int
	}
	var bounds []bound
	for i, h := range p.headings {
		if h.Level != 2 || h.Start < 0 {
			continue
		}
		end := len(p.source)
		for _, next := range p.headings[i+1:] {
			if next.Level == 2 && next.Start >= 0 {
				end = next.Start
				break
			}
		}
		bounds = append(bounds, bound{heading: h, end: end})
	}

	if len(bounds) == 0 {
		doc.prologue = span{0, len(p.source)}
		return doc, nil
	}
	doc.prologue = span{0, bounds[0].heading.Start}

	for _, b := range bounds {
		raw := span{b.heading.Start, b.end}
		bodyStart := lineEnd(p.source, b.heading.Start)
		entry := Entry{
			Title: b.heading.Text,
			Line:  b.heading.Line,
			Body:  strings.TrimSpace(string(p.source[bodyStart:b.end])),
			raw:   raw,
		}
		for _, s := range p.snippets {
			if s.offset >= raw.start && s.offset < raw.end {
				entry.Snippets = append(entry.Snippets, s.value)
			}
		}
		for _, l := range p.links {
			if l.offset >= raw.start && l.offset < raw.end {
				entry.Links = append(entry.Links, l.value)
			}
		}
		doc.Entries = append(doc.Entries, entry)
	}

	return doc, nil
}

// lineOffsets returns the byte offset of every line start.
func lineOffsets(source []byte) []int {
	offsets := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt maps a byte offset to a 1-based line number.
func (p *parseState) lineAt(offset int) int {
	lo, hi := 0, len(p.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if p.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// lineEnd returns the offset just past the newline terminating the line
// that begins at start.
func lineEnd(source []byte, start int) int {
	if i := bytes.IndexByte(source[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(source)
}
