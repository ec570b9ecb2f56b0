// Package document models a troubleshooting FAQ as structured entries.
// A document is an ordered sequence of question/answer entries delimited
// by level-2 headings. Parsing keeps the original bytes so the document
// can always be re-emitted exactly as it was read.
package document

// Document is a parsed FAQ file. Entries appear in source order.
// The zero value is not usable; construct with Parse.
type Document struct {
	// Headings lists every heading in the file, including the document
	// title, in source order.
	Headings []Heading

	// Entries are the question/answer pairs (level-2 headings).
	Entries []Entry

	// Snippets and Links cover the whole file in source order, including
	// anything before the first entry.
	Snippets []Snippet
	Links    []Link

	source   []byte
	prologue span // bytes before the first entry
}

// Heading is one markdown heading with its position in the file.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based
	Start int // byte offset of the heading line
}

// Entry is one FAQ entry: a question heading and everything up to the
// next question (or EOF).
type Entry struct {
	Title    string
	Line     int // 1-based line of the heading
	Body     string
	Snippets []Snippet
	Links    []Link

	raw span
}

// Snippet is a fenced code block inside an entry's answer.
type Snippet struct {
	Language  string
	StartLine int // opening fence line, 0 if it could not be determined
	EndLine   int
	Content   string
}

// Link is an inline hyperlink inside an entry's answer.
type Link struct {
	Label string
	URL   string
	Line  int
}

type span struct {
	start, end int
}

// Titles returns the entry titles in document order.
func (d *Document) Titles() []string {
	titles := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		titles[i] = e.Title
	}
	return titles
}

// Lookup finds an entry by exact title text.
func (d *Document) Lookup(title string) (*Entry, bool) {
	for i := range d.Entries {
		if d.Entries[i].Title == title {
			return &d.Entries[i], true
		}
	}
	return nil, false
}

// Bytes re-emits the document. The result is byte-for-byte identical to
// the input Parse was given: the prologue and entry spans partition the
// source, so this is a plain reassembly, not a re-serialization.
func (d *Document) Bytes() []byte {
	out := make([]byte, 0, len(d.source))
	out = append(out, d.source[d.prologue.start:d.prologue.end]...)
	for _, e := range d.Entries {
		out = append(out, d.source[e.raw.start:e.raw.end]...)
	}
	return out
}

// Raw returns the original bytes of a single entry, heading included.
func (d *Document) Raw(e *Entry) []byte {
	return d.source[e.raw.start:e.raw.end]
}

// Source returns the bytes the document was parsed from.
func (d *Document) Source() []byte {
	return d.source
}
