package mdexport

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
)

// fragmentRenderer produces a bare HTML fragment with all styling
// inlined, suitable for rich-paste into clipboard targets that strip
// <style> blocks (word processors, mail clients).
type fragmentRenderer struct {
	cfg    Config
	logger *slog.Logger
}

func (r *fragmentRenderer) render(doc *Document) ([]byte, error) {
	var sb strings.Builder
	for _, b := range doc.Blocks {
		for _, frag := range r.renderBlock(b, 0) {
			sb.WriteString(frag)
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String()), nil
}

// renderBlock dispatches one block at the given blockquote depth.
func (r *fragmentRenderer) renderBlock(b Block, quoteDepth int) []string {
	switch blk := b.(type) {
	case Heading:
		return []string{fmt.Sprintf("<h%d>%s</h%d>", blk.Level, htmlInlines(blk.Content, inlineStyle{}, r.cfg), blk.Level)}

	case Paragraph:
		return []string{"<p>" + htmlInlines(blk.Content, inlineStyle{}, r.cfg) + "</p>"}

	case Code:
		return r.codeBlock(blk)

	case DiagramLink:
		label := html.EscapeString(diagramLinkLabel(r.cfg, blk))
		return []string{`<p><a href="` + html.EscapeString(blk.URL) + `">` + label + `</a></p>`}

	case List:
		return []string{r.list(blk)}

	case Table:
		return []string{r.table(blk)}

	case Blockquote:
		inner := make([]string, 0, len(blk.Blocks))
		for _, child := range blk.Blocks {
			inner = append(inner, r.renderBlock(child, quoteDepth+1)...)
		}
		open := `<div style="border-left:3px solid #c0c0c0;margin-left:0.5em;padding-left:1em;color:#555555">`
		return append(append([]string{open}, inner...), "</div>")

	case HorizontalRule:
		return []string{`<hr/>`}

	case Image:
		return r.image(blk)

	default:
		r.logger.Error("unrenderable block", "kind", blockKind(b))
		return []string{`<p style="color:#cc0000;font-style:italic">` + html.EscapeString(renderErrorFragment(blockKind(b))) + `</p>`}
	}
}

// codeBlock emits the block line by line, each line its own styled div,
// so paste targets preserve blank lines and indentation. No line is ever
// merged or dropped.
func (r *fragmentRenderer) codeBlock(c Code) []string {
	var frags []string
	if r.cfg.IncludeLanguageLabel && c.Language != "" {
		frags = append(frags, `<div style="font-size:0.75em;color:#777777">`+html.EscapeString(c.Language)+`</div>`)
	}

	lineStyle := "font-family:" + cssFontFamily(r.cfg.CodeBlockFont) +
		";background-color:" + r.cfg.CodeBlockBackground +
		";white-space:pre"

	for _, line := range strings.Split(c.Content, "\n") {
		if line == "" {
			// A blank styled line, not a collapsed div.
			frags = append(frags, `<div style="`+lineStyle+`">`+" "+`</div>`)
			continue
		}
		frags = append(frags, `<div style="`+lineStyle+`">`+html.EscapeString(line)+`</div>`)
	}
	return frags
}

func (r *fragmentRenderer) list(l List) string {
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

func (r *fragmentRenderer) table(t Table) string {
	const cellStyle = "border:1px solid #c0c0c0;padding:4px 8px"

	var sb strings.Builder
	sb.WriteString(`<table style="border-collapse:collapse"><thead><tr>`)
	for _, h := range t.Headers {
		sb.WriteString(`<th style="` + cellStyle + `;background-color:#eaeef2">` + htmlInlines(h, inlineStyle{}, r.cfg) + `</th>`)
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString(`<td style="` + cellStyle + `">` + htmlInlines(cell, inlineStyle{}, r.cfg) + `</td>`)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

func (r *fragmentRenderer) image(img Image) []string {
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
