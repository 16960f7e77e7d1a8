package mdexport

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// htmlDocTemplate wraps the rendered body in a complete HTML5 document.
const htmlDocTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>%s</style>
</head>
<body>
%s</body>
</html>`

// chromaStyleName is the highlight palette used for code fences.
const chromaStyleName = "github"

// htmlDocRenderer produces a standalone styled HTML document.
type htmlDocRenderer struct {
	cfg    Config
	logger *slog.Logger
}

func (r *htmlDocRenderer) render(doc *Document) ([]byte, error) {
	title := doc.Meta.Title
	if title == "" {
		title = "Document"
	}

	var body strings.Builder
	for _, b := range doc.Blocks {
		for _, frag := range r.renderBlock(b) {
			body.WriteString(frag)
			body.WriteString("\n")
		}
	}

	page := fmt.Sprintf(htmlDocTemplate, html.EscapeString(title), buildDocumentCSS(r.cfg), body.String())
	return []byte(page), nil
}

// renderBlock dispatches one block to its HTML construct. The catch-all
// substitutes a visible error fragment instead of aborting the document.
func (r *htmlDocRenderer) renderBlock(b Block) []string {
	switch blk := b.(type) {
	case Heading:
		return []string{fmt.Sprintf("<h%d>%s</h%d>", blk.Level, htmlInlines(blk.Content, inlineStyle{}, r.cfg), blk.Level)}

	case Paragraph:
		return []string{"<p>" + htmlInlines(blk.Content, inlineStyle{}, r.cfg) + "</p>"}

	case Code:
		return r.codeBlock(blk)

	case DiagramLink:
		label := html.EscapeString(diagramLinkLabel(r.cfg, blk))
		return []string{`<p class="diagram-link"><a href="` + html.EscapeString(blk.URL) + `">` + label + `</a></p>`}

	case List:
		return []string{r.list(blk)}

	case Table:
		return []string{r.table(blk)}

	case Blockquote:
		frags := []string{"<blockquote>"}
		for _, inner := range blk.Blocks {
			frags = append(frags, r.renderBlock(inner)...)
		}
		return append(frags, "</blockquote>")

	case HorizontalRule:
		return []string{"<hr/>"}

	case Image:
		return r.image(blk)

	default:
		r.logger.Error("unrenderable block", "kind", blockKind(b))
		return []string{`<p class="render-error">` + html.EscapeString(renderErrorFragment(blockKind(b))) + `</p>`}
	}
}

// codeBlock highlights a code fence with chroma, preserving every line.
// When highlighting fails the block degrades to an escaped <pre>.
func (r *htmlDocRenderer) codeBlock(c Code) []string {
	var frags []string
	if r.cfg.IncludeLanguageLabel && c.Language != "" {
		frags = append(frags, `<div class="code-label">`+html.EscapeString(c.Language)+`</div>`)
	}

	open := `<pre class="code-block">`
	highlighted, err := highlightCode(c.Content, c.Language)
	if err != nil {
		r.logger.Warn("syntax highlighting failed, using plain block", "language", c.Language, "error", err)
		return append(frags, open+html.EscapeString(c.Content)+"</pre>")
	}
	return append(frags, open+highlighted+"</pre>")
}

// highlightCode tokenizes code with the lexer registered for language
// and emits inline-styled spans without a surrounding <pre>.
func highlightCode(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(chromaStyleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	formatter := chromahtml.New(chromahtml.PreventSurroundingPre(true))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *htmlDocRenderer) list(l List) string {
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}

	var sb strings.Builder
	sb.WriteString("<" + tag + ">")
	for _, item := range l.Items {
		sb.WriteString("<li>")
		sb.WriteString(htmlInlines(item.Content, inlineStyle{}, r.cfg))
		if item.Children != nil {
			sb.WriteString(r.list(*item.Children))
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</" + tag + ">")
	return sb.String()
}

func (r *htmlDocRenderer) table(t Table) string {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr>")
	for _, h := range t.Headers {
		sb.WriteString("<th>" + htmlInlines(h, inlineStyle{}, r.cfg) + "</th>")
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + htmlInlines(cell, inlineStyle{}, r.cfg) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

// image dispatches on the configured image policy. Skip contributes zero
// fragments, not an empty one.
func (r *htmlDocRenderer) image(img Image) []string {
	switch strings.ToLower(r.cfg.ImageHandling) {
	case ImageSkip:
		return nil
	case ImageLink:
		label := img.Alt
		if label == "" {
			label = "Image"
		}
		return []string{`<p><a href="` + html.EscapeString(img.URL) + `">` + html.EscapeString(label) + `</a></p>`}
	default: // embed
		return []string{`<p><img src="` + html.EscapeString(img.URL) + `" alt="` + html.EscapeString(img.Alt) + `"/></p>`}
	}
}

// buildDocumentCSS generates the document stylesheet from configuration.
func buildDocumentCSS(cfg Config) string {
	return fmt.Sprintf(`
body { font-family: sans-serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1f2328; }
h1, h2, h3, h4, h5, h6 { line-height: 1.25; margin-top: 1.5em; }
pre.code-block { background-color: %[1]s; font-family: %[2]s; padding: 0.8em; border-radius: 4px; overflow-x: auto; }
div.code-label { font-size: 0.75em; color: #6a737d; text-transform: uppercase; margin-bottom: 0.2em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #d0d7de; padding: 0.4em 0.8em; }
th { background-color: #eaeef2; }
blockquote { border-left: 4px solid #d0d7de; margin-left: 0; padding-left: 1em; color: #57606a; }
hr { border: none; border-top: 1px solid #d0d7de; margin: 1.5em 0; }
p.render-error { color: #cf222e; font-style: italic; }
`, cfg.CodeBlockBackground, cssFontFamily(cfg.CodeBlockFont))
}
