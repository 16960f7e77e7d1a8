package mdexport

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Parser converts markdown text into a Document tree. A Parser is safe
// for concurrent use; all per-call state lives in the parse itself.
type Parser struct {
	cfg    Config
	logger *slog.Logger
	md     goldmark.Markdown
}

// NewParser creates a Parser for the given configuration.
func NewParser(cfg Config) *Parser {
	return newParser(cfg, discardLogger())
}

func newParser(cfg Config, logger *slog.Logger) *Parser {
	return &Parser{
		cfg:    cfg,
		logger: logger,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM, // Tables, strikethrough, autolinks, task lists
			),
		),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Parse converts raw markdown into a Document. Empty or whitespace-only
// input yields an empty document. Parse never fails: localized
// conversion errors skip the offending block and are reported in the
// returned diagnostics; a tokenizer-level failure degrades to an empty
// tree.
func (p *Parser) Parse(raw string) (*Document, []string) {
	doc := &Document{}
	if strings.TrimSpace(raw) == "" {
		return doc, nil
	}

	content := normalizeLineEndings(raw)

	var meta DocumentMeta
	meta, content = splitFrontMatter(content)
	doc.Meta = meta

	content = normalizeCallouts(content)
	content = repairTreeFences(content)
	content = stripTrailingTags(content)
	content = stripHighlightMarks(content)
	if p.cfg.RemoveObsidianLinks {
		content = rewriteWikilinks(content)
	}

	content, placeholders := extractDiagrams(content)

	st := &parseState{
		source:       []byte(content),
		placeholders: placeholders,
		logger:       p.logger,
	}
	doc.Blocks = p.buildTree(st)
	return doc, st.diags
}

// buildTree tokenizes the preprocessed text and converts the resulting
// block structure. A panic anywhere below degrades to an empty tree.
func (p *Parser) buildTree(st *parseState) (blocks []Block) {
	defer func() {
		if r := recover(); r != nil {
			st.warnf("tokenizer failure, producing empty tree: %v", r)
			blocks = nil
		}
	}()

	root := p.md.Parser().Parse(gmtext.NewReader(st.source))
	return st.convertBlocks(root)
}

// parseState is the per-call working set: the tokenizer source, the
// diagram placeholder registry, and accumulated diagnostics. Nothing
// here outlives a single Parse call.
type parseState struct {
	source       []byte
	placeholders map[string]DiagramLink
	diags        []string
	logger       *slog.Logger
}

func (st *parseState) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	st.diags = append(st.diags, msg)
	st.logger.Warn("parse diagnostic", "detail", msg)
}

// convertBlocks converts all child nodes of parent. A failure in one
// node skips that node only; siblings are unaffected.
func (st *parseState) convertBlocks(parent gmast.Node) []Block {
	var blocks []Block
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if b, ok := st.convertBlockSafe(child); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (st *parseState) convertBlockSafe(n gmast.Node) (b Block, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			st.warnf("skipping %s block: %v", n.Kind().String(), r)
			ok = false
		}
	}()
	return st.convertBlock(n)
}

func (st *parseState) convertBlock(n gmast.Node) (Block, bool) {
	switch node := n.(type) {
	case *gmast.Heading:
		level := node.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return Heading{Level: level, Content: st.inlines(node)}, true

	case *gmast.Paragraph:
		return st.paragraphBlock(node)

	case *gmast.TextBlock:
		return Paragraph{Content: st.inlines(node)}, true

	case *gmast.FencedCodeBlock:
		lang := ""
		if l := node.Language(st.source); l != nil {
			lang = string(l)
		}
		return Code{Language: lang, Content: st.blockText(node)}, true

	case *gmast.CodeBlock:
		return Code{Content: st.blockText(node)}, true

	case *gmast.List:
		return st.convertList(node), true

	case *east.Table:
		return st.convertTable(node), true

	case *gmast.Blockquote:
		return Blockquote{Blocks: st.convertBlocks(node)}, true

	case *gmast.ThematicBreak:
		return HorizontalRule{}, true

	case *gmast.HTMLBlock:
		// No raw-HTML variant in the tree: degrade to plain text.
		if raw := st.blockText(node); strings.TrimSpace(raw) != "" {
			return Paragraph{Content: InlineSeq{Text{Text: raw}}}, true
		}
		return nil, false

	default:
		if raw := st.blockText(n); strings.TrimSpace(raw) != "" {
			st.warnf("degrading %s block to paragraph", n.Kind().String())
			return Paragraph{Content: InlineSeq{Text{Text: raw}}}, true
		}
		st.warnf("dropping %s block with no text content", n.Kind().String())
		return nil, false
	}
}

// paragraphBlock applies the two paragraph substitution rules: a
// paragraph whose whole text is one diagram placeholder becomes the
// corresponding DiagramLink, and a paragraph holding exactly one image
// becomes an Image block.
func (st *parseState) paragraphBlock(n *gmast.Paragraph) (Block, bool) {
	if n.ChildCount() == 1 {
		if img, ok := n.FirstChild().(*gmast.Image); ok {
			return Image{Alt: st.imageAlt(img), URL: string(img.Destination)}, true
		}
	}

	content := st.inlines(n)
	if link, ok := st.placeholders[strings.TrimSpace(plainText(content))]; ok {
		return link, true
	}
	if len(content) == 0 {
		return nil, false
	}
	return Paragraph{Content: content}, true
}

func (st *parseState) convertList(n *gmast.List) List {
	list := List{Ordered: n.IsOrdered()}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		li := ListItem{}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch child := c.(type) {
			case *gmast.List:
				if li.Children == nil {
					nested := st.convertList(child)
					li.Children = &nested
				} else {
					// Multiple nested lists under one item collapse
					// into a single child list.
					extra := st.convertList(child)
					li.Children.Items = append(li.Children.Items, extra.Items...)
				}
			case *gmast.TextBlock, *gmast.Paragraph:
				if len(li.Content) > 0 {
					li.Content = append(li.Content, Text{Text: " "})
				}
				li.Content = append(li.Content, st.inlines(child)...)
			default:
				if raw := st.blockText(c); strings.TrimSpace(raw) != "" {
					if len(li.Content) > 0 {
						li.Content = append(li.Content, Text{Text: " "})
					}
					li.Content = append(li.Content, Text{Text: raw})
				}
			}
		}
		list.Items = append(list.Items, li)
	}
	return list
}

// convertTable normalizes every row to the header cell count, padding
// short rows and truncating long ones, so renderers can rely on the
// column invariant.
func (st *parseState) convertTable(n *east.Table) Table {
	var tbl Table
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		switch r := row.(type) {
		case *east.TableHeader:
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				tbl.Headers = append(tbl.Headers, st.inlines(cell))
			}
		case *east.TableRow:
			var cells []InlineSeq
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, st.inlines(cell))
			}
			for len(cells) < len(tbl.Headers) {
				cells = append(cells, InlineSeq{})
			}
			if len(tbl.Headers) > 0 && len(cells) > len(tbl.Headers) {
				cells = cells[:len(tbl.Headers)]
			}
			tbl.Rows = append(tbl.Rows, cells)
		}
	}
	return tbl
}

// inlines converts the child nodes of parent into an inline sequence.
// A failure in one node skips that node only.
func (st *parseState) inlines(parent gmast.Node) InlineSeq {
	var seq InlineSeq
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if in, ok := st.convertInlineSafe(child); ok {
			seq = append(seq, in)
		}
	}
	return seq
}

func (st *parseState) convertInlineSafe(n gmast.Node) (in Inline, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			st.warnf("skipping %s inline: %v", n.Kind().String(), r)
			ok = false
		}
	}()
	return st.convertInline(n)
}

func (st *parseState) convertInline(n gmast.Node) (Inline, bool) {
	switch node := n.(type) {
	case *gmast.Text:
		val := string(node.Segment.Value(st.source))
		switch {
		case node.HardLineBreak():
			val += "\n"
		case node.SoftLineBreak():
			val += " "
		}
		return Text{Text: val}, val != ""

	case *gmast.String:
		return Text{Text: string(node.Value)}, len(node.Value) > 0

	case *gmast.Emphasis:
		// goldmark parses ***text*** as nested Emphasis nodes (level 2
		// containing level 1), so composition falls out of recursion.
		if node.Level == 2 {
			return Bold{Content: st.inlines(node)}, true
		}
		return Italic{Content: st.inlines(node)}, true

	case *east.Strikethrough:
		return Strikethrough{Content: st.inlines(node)}, true

	case *gmast.CodeSpan:
		return InlineCode{Text: st.codeSpanText(node)}, true

	case *gmast.Link:
		return Link{Content: st.inlines(node), URL: string(node.Destination)}, true

	case *gmast.AutoLink:
		url := string(node.URL(st.source))
		return Link{Content: InlineSeq{Text{Text: url}}, URL: url}, true

	case *gmast.Image:
		// Inline image mixed into other content: no inline image
		// variant exists, degrade to its alt text.
		alt := st.imageAlt(node)
		if alt == "" {
			alt = string(node.Destination)
		}
		st.warnf("degrading inline image %q to plain text", string(node.Destination))
		return Text{Text: alt}, alt != ""

	case *gmast.RawHTML:
		var sb strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			sb.Write(seg.Value(st.source))
		}
		return Text{Text: sb.String()}, sb.Len() > 0

	case *east.TaskCheckBox:
		if node.IsChecked {
			return Text{Text: "[x] "}, true
		}
		return Text{Text: "[ ] "}, true

	default:
		st.warnf("dropping %s inline", n.Kind().String())
		return nil, false
	}
}

// codeSpanText collects the literal text of a code span.
func (st *parseState) codeSpanText(n *gmast.CodeSpan) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(st.source))
		}
	}
	return sb.String()
}

// imageAlt collects the alt text of an image node.
func (st *parseState) imageAlt(n *gmast.Image) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(st.source))
		}
	}
	return sb.String()
}

// blockText joins the source lines a block node spans. Fenced code keeps
// every interior character; only the final fence newline is dropped.
func (st *parseState) blockText(n gmast.Node) string {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(st.source))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
