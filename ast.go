package mdexport

import "strings"

// Document is the renderer-independent tree produced by the parser.
// Every backend consumes this structure and nothing else.
type Document struct {
	Meta   DocumentMeta
	Blocks []Block
}

// DocumentMeta holds the fields extracted from YAML front matter.
// Unknown front matter keys are ignored.
type DocumentMeta struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Date   string `yaml:"date"`
}

// Block is a top-level document node. The set of implementations is
// closed; renderers switch over the concrete types.
type Block interface {
	block()
}

// Inline is a node inside flowing text. The set of implementations is
// closed, mirroring Block.
type Inline interface {
	inline()
}

// InlineSeq is an ordered run of inline content.
type InlineSeq []Inline

// Heading is a section heading with level 1 through 6.
type Heading struct {
	Level   int
	Content InlineSeq
}

// Paragraph is ordinary flowing text.
type Paragraph struct {
	Content InlineSeq
}

// Code is a fenced or indented code block. Content holds the verbatim
// interior lines joined by \n, without the fence markers.
type Code struct {
	Language string
	Content  string
}

// DiagramLink replaces a mermaid fence: the diagram source is encoded
// into a shareable URL instead of being rendered inline.
type DiagramLink struct {
	Kind   string // display label, e.g. "Flowchart"
	Source string // original diagram text
	URL    string // external editor link
}

// List is an ordered or unordered list.
type List struct {
	Ordered bool
	Items   []ListItem
}

// ListItem is one entry of a List. Children holds a nested sublist when
// present.
type ListItem struct {
	Content  InlineSeq
	Children *List
}

// Table is a GFM table. Every row has exactly len(Headers) cells; the
// parser enforces that invariant.
type Table struct {
	Headers []InlineSeq
	Rows    [][]InlineSeq
}

// Blockquote wraps nested blocks.
type Blockquote struct {
	Blocks []Block
}

// HorizontalRule is a thematic break.
type HorizontalRule struct{}

// Image is a block-level image: a paragraph that consisted of exactly
// one image reference.
type Image struct {
	Alt string
	URL string
}

func (Heading) block()        {}
func (Paragraph) block()      {}
func (Code) block()           {}
func (DiagramLink) block()    {}
func (List) block()           {}
func (Table) block()          {}
func (Blockquote) block()     {}
func (HorizontalRule) block() {}
func (Image) block()          {}

// Text is a literal text run. Line breaks inside flowing text appear as
// \n characters.
type Text struct {
	Text string
}

// Bold is strongly emphasized content.
type Bold struct {
	Content InlineSeq
}

// Italic is emphasized content.
type Italic struct {
	Content InlineSeq
}

// Strikethrough is struck-through content.
type Strikethrough struct {
	Content InlineSeq
}

// InlineCode is a code span.
type InlineCode struct {
	Text string
}

// Link is a hyperlink with inline label content.
type Link struct {
	Content InlineSeq
	URL     string
}

func (Text) inline()          {}
func (Bold) inline()          {}
func (Italic) inline()        {}
func (Strikethrough) inline() {}
func (InlineCode) inline()    {}
func (Link) inline()          {}

// blockKind names a block's concrete type for diagnostics.
func blockKind(b Block) string {
	switch b.(type) {
	case Heading:
		return "heading"
	case Paragraph:
		return "paragraph"
	case Code:
		return "code"
	case DiagramLink:
		return "diagram"
	case List:
		return "list"
	case Table:
		return "table"
	case Blockquote:
		return "blockquote"
	case HorizontalRule:
		return "rule"
	case Image:
		return "image"
	}
	return "unknown"
}

// plainText flattens an inline sequence to its text content, dropping
// all formatting.
func plainText(seq InlineSeq) string {
	var sb strings.Builder
	for _, in := range seq {
		switch n := in.(type) {
		case Text:
			sb.WriteString(n.Text)
		case Bold:
			sb.WriteString(plainText(n.Content))
		case Italic:
			sb.WriteString(plainText(n.Content))
		case Strikethrough:
			sb.WriteString(plainText(n.Content))
		case InlineCode:
			sb.WriteString(n.Text)
		case Link:
			sb.WriteString(plainText(n.Content))
		}
	}
	return sb.String()
}
