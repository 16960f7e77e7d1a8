package mdexport

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
)

// renderer is the shared contract of the three backends. Rendering the
// same document twice with the same configuration yields byte-identical
// output; nothing is cached between calls.
type renderer interface {
	render(doc *Document) ([]byte, error)
}

// newRenderer selects the backend for a format.
func newRenderer(format string, cfg Config, logger *slog.Logger) (renderer, error) {
	switch strings.ToLower(format) {
	case FormatDocx:
		return &docxRenderer{cfg: cfg, logger: logger}, nil
	case FormatHTML:
		return &htmlDocRenderer{cfg: cfg, logger: logger}, nil
	case FormatClipboard:
		return &fragmentRenderer{cfg: cfg, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

// formatMIME returns the MIME type of a format's output.
func formatMIME(format string) string {
	switch strings.ToLower(format) {
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML, FormatClipboard:
		return "text/html"
	}
	return "application/octet-stream"
}

// outputFilename derives the suggested output filename for a format.
// Clipboard output has no filename.
func outputFilename(base, format string) string {
	if base == "" {
		base = "export"
	}
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".markdown"), ".md")
	switch strings.ToLower(format) {
	case FormatDocx:
		return base + ".docx"
	case FormatHTML:
		return base + ".html"
	}
	return ""
}

// inlineStyle accumulates formatting flags through recursive inline
// conversion, so Bold(Italic(text)) reaches the leaf with both flags set
// instead of nesting native markup arbitrarily deep.
type inlineStyle struct {
	bold   bool
	italic bool
	strike bool
}

// diagramLinkLabel builds the visible text of a diagram link.
func diagramLinkLabel(cfg Config, d DiagramLink) string {
	label := cfg.MermaidLinkText
	if cfg.IncludeMermaidType {
		label += " (" + d.Kind + ")"
	}
	return label
}

// renderErrorFragment is the visibly-marked substitute emitted by a
// backend's catch-all branch so one malformed node never aborts the
// whole document.
func renderErrorFragment(kind string) string {
	return "[error rendering " + kind + " block]"
}

// htmlInlines renders an inline sequence to HTML with accumulated flags.
// Shared by the styled-document and clipboard-fragment backends.
func htmlInlines(seq InlineSeq, st inlineStyle, cfg Config) string {
	var sb strings.Builder
	for _, in := range seq {
		switch n := in.(type) {
		case Text:
			sb.WriteString(htmlTextSpan(n.Text, st))
		case Bold:
			next := st
			next.bold = true
			sb.WriteString(htmlInlines(n.Content, next, cfg))
		case Italic:
			next := st
			next.italic = true
			sb.WriteString(htmlInlines(n.Content, next, cfg))
		case Strikethrough:
			next := st
			next.strike = true
			sb.WriteString(htmlInlines(n.Content, next, cfg))
		case InlineCode:
			sb.WriteString(`<code style="` + htmlCodeSpanStyle(cfg, st) + `">`)
			sb.WriteString(html.EscapeString(n.Text))
			sb.WriteString(`</code>`)
		case Link:
			sb.WriteString(`<a href="` + html.EscapeString(n.URL) + `">`)
			sb.WriteString(htmlInlines(n.Content, st, cfg))
			sb.WriteString(`</a>`)
		}
	}
	return sb.String()
}

// htmlTextSpan emits escaped text, wrapped in a styled span only when
// formatting flags are active.
func htmlTextSpan(text string, st inlineStyle) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br/>")
	style := htmlStyleAttr(st)
	if style == "" {
		return escaped
	}
	return `<span style="` + style + `">` + escaped + `</span>`
}

// htmlStyleAttr converts accumulated flags to a CSS declaration list.
func htmlStyleAttr(st inlineStyle) string {
	var parts []string
	if st.bold {
		parts = append(parts, "font-weight:bold")
	}
	if st.italic {
		parts = append(parts, "font-style:italic")
	}
	if st.strike {
		parts = append(parts, "text-decoration:line-through")
	}
	return strings.Join(parts, ";")
}

// htmlCodeSpanStyle styles an inline code span with the configured
// monospace font plus any active flags.
func htmlCodeSpanStyle(cfg Config, st inlineStyle) string {
	style := "font-family:" + cssFontFamily(cfg.CodeBlockFont) + ";background-color:" + cfg.CodeBlockBackground
	if extra := htmlStyleAttr(st); extra != "" {
		style += ";" + extra
	}
	return style
}

// cssFontFamily quotes a font name containing spaces and appends the
// generic monospace fallback.
func cssFontFamily(font string) string {
	if strings.ContainsAny(font, " \t") {
		font = "'" + font + "'"
	}
	return font + ", monospace"
}
