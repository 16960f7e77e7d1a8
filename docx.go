package mdexport

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Numbering definition IDs declared in word/numbering.xml.
const (
	bulletNumID  = 1
	decimalNumID = 2
)

// Fixed relationship IDs of the document part. Hyperlink relationships
// are allocated after these.
const (
	stylesRelID      = 1
	numberingRelID   = 2
	firstDynamicRel  = 3
	quoteIndentTwips = 720
)

// docxRenderer produces a minimal OOXML word-processing package.
type docxRenderer struct {
	cfg    Config
	logger *slog.Logger
}

func (r *docxRenderer) render(doc *Document) ([]byte, error) {
	b := &docxBuilder{cfg: r.cfg, logger: r.logger}

	var body strings.Builder
	for _, blk := range doc.Blocks {
		for _, frag := range b.renderBlock(blk, 0, false) {
			body.WriteString(frag)
		}
	}

	return packDocx(body.String(), b.links, doc.Meta)
}

// docxBuilder accumulates body fragments and the hyperlink targets that
// must become package relationships. One builder serves one render call.
type docxBuilder struct {
	cfg    Config
	logger *slog.Logger
	links  []string // hyperlink targets, in relationship order
}

// hyperlinkRelID registers url as an external relationship and returns
// its r:id value.
func (b *docxBuilder) hyperlinkRelID(url string) string {
	b.links = append(b.links, url)
	return "rId" + strconv.Itoa(firstDynamicRel+len(b.links)-1)
}

// renderBlock dispatches one block to WordprocessingML fragments.
// listDepth tracks list nesting; quoted applies blockquote styling.
func (b *docxBuilder) renderBlock(blk Block, listDepth int, quoted bool) []string {
	switch n := blk.(type) {
	case Heading:
		ppr := `<w:pStyle w:val="Heading` + strconv.Itoa(n.Level) + `"/>` + quotePPr(quoted)
		return []string{wmlParagraph(ppr, b.inlineRuns(n.Content, inlineStyle{}, false))}

	case Paragraph:
		return []string{wmlParagraph(quotePPr(quoted), b.inlineRuns(n.Content, inlineStyle{}, false))}

	case Code:
		return b.codeBlock(n, quoted)

	case DiagramLink:
		relID := b.hyperlinkRelID(n.URL)
		run := b.textRun(diagramLinkLabel(b.cfg, n), inlineStyle{}, false, true)
		link := `<w:hyperlink r:id="` + relID + `">` + run + `</w:hyperlink>`
		return []string{wmlParagraph(quotePPr(quoted), link)}

	case List:
		return b.renderList(n, listDepth, quoted)

	case Table:
		frags := []string{}
		if quoted {
			// A table cannot carry the quote border; mark it textually.
			marker := b.textRun("[quoted table]", inlineStyle{italic: true}, false, false)
			frags = append(frags, wmlParagraph(quotePPr(true), marker))
		}
		return append(frags, b.renderTable(n))

	case Blockquote:
		var frags []string
		for _, child := range n.Blocks {
			frags = append(frags, b.renderBlock(child, 0, true)...)
		}
		return frags

	case HorizontalRule:
		ppr := `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="C0C0C0"/></w:pBdr>`
		return []string{wmlParagraph(ppr, "")}

	case Image:
		return b.renderImage(n, quoted)

	default:
		b.logger.Error("unrenderable block", "kind", blockKind(blk))
		run := b.textRun(renderErrorFragment(blockKind(blk)), inlineStyle{italic: true}, false, false)
		return []string{wmlParagraph("", run)}
	}
}

// codeBlock emits an optional language label and then one shaded
// monospace paragraph per line. Blank lines stay as blank shaded
// paragraphs; no line is merged or dropped.
func (b *docxBuilder) codeBlock(c Code, quoted bool) []string {
	var frags []string

	if b.cfg.IncludeLanguageLabel && c.Language != "" {
		label := b.textRun(c.Language, inlineStyle{italic: true}, false, false)
		frags = append(frags, wmlParagraph(quotePPr(quoted), label))
	}

	shading := `<w:shd w:val="clear" w:color="auto" w:fill="` + hexFill(b.cfg.CodeBlockBackground) + `"/>`
	for _, line := range strings.Split(c.Content, "\n") {
		run := b.textRun(line, inlineStyle{}, true, false)
		frags = append(frags, wmlParagraph(quotePPr(quoted)+shading, run))
	}
	return frags
}

// renderList emits one numbered paragraph per item at the current depth
// and recurses into children at depth+1. Ordered vs. unordered is taken
// from each List node itself, never inherited.
func (b *docxBuilder) renderList(l List, depth int, quoted bool) []string {
	numID := bulletNumID
	if l.Ordered {
		numID = decimalNumID
	}

	var frags []string
	for _, item := range l.Items {
		ppr := `<w:pStyle w:val="ListParagraph"/>` +
			`<w:numPr><w:ilvl w:val="` + strconv.Itoa(depth) + `"/><w:numId w:val="` + strconv.Itoa(numID) + `"/></w:numPr>` +
			quotePPr(quoted)
		frags = append(frags, wmlParagraph(ppr, b.inlineRuns(item.Content, inlineStyle{}, false)))
		if item.Children != nil {
			frags = append(frags, b.renderList(*item.Children, depth+1, quoted)...)
		}
	}
	return frags
}

// renderTable emits the header row with distinct shading and bold runs,
// then the data rows. Cell counts are the parser's invariant; nothing is
// padded here.
func (b *docxBuilder) renderTable(t Table) string {
	var sb strings.Builder
	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/>` +
		`<w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`<w:left w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`<w:right w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="C0C0C0"/>` +
		`</w:tblBorders></w:tblPr>`)

	sb.WriteString("<w:tr>")
	for _, h := range t.Headers {
		sb.WriteString(`<w:tc><w:tcPr><w:shd w:val="clear" w:color="auto" w:fill="EAEEF2"/></w:tcPr>`)
		sb.WriteString(wmlParagraph("", b.inlineRuns(h, inlineStyle{bold: true}, false)))
		sb.WriteString("</w:tc>")
	}
	sb.WriteString("</w:tr>")

	for _, row := range t.Rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc>")
			sb.WriteString(wmlParagraph("", b.inlineRuns(cell, inlineStyle{}, false)))
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}

	sb.WriteString("</w:tbl>")
	return sb.String()
}

// renderImage dispatches on the configured image policy. Skip
// contributes zero fragments.
func (b *docxBuilder) renderImage(img Image, quoted bool) []string {
	switch strings.ToLower(b.cfg.ImageHandling) {
	case ImageSkip:
		return nil
	case ImageLink:
		label := img.Alt
		if label == "" {
			label = "Image"
		}
		relID := b.hyperlinkRelID(img.URL)
		run := b.textRun(label, inlineStyle{}, false, true)
		link := `<w:hyperlink r:id="` + relID + `">` + run + `</w:hyperlink>`
		return []string{wmlParagraph(quotePPr(quoted), link)}
	default: // embed
		// Remote image bytes are never fetched; note that in place of
		// a native drawing.
		alt := img.Alt
		if alt == "" {
			alt = "untitled"
		}
		text := "[image: " + alt + " — " + img.URL + "]"
		run := b.textRun(text, inlineStyle{italic: true}, false, false)
		return []string{wmlParagraph(quotePPr(quoted), run)}
	}
}

// inlineRuns converts an inline sequence to a series of runs, carrying
// accumulated formatting flags down through the recursion.
func (b *docxBuilder) inlineRuns(seq InlineSeq, st inlineStyle, linked bool) string {
	var sb strings.Builder
	for _, in := range seq {
		switch n := in.(type) {
		case Text:
			sb.WriteString(b.textRun(n.Text, st, false, linked))
		case Bold:
			next := st
			next.bold = true
			sb.WriteString(b.inlineRuns(n.Content, next, linked))
		case Italic:
			next := st
			next.italic = true
			sb.WriteString(b.inlineRuns(n.Content, next, linked))
		case Strikethrough:
			next := st
			next.strike = true
			sb.WriteString(b.inlineRuns(n.Content, next, linked))
		case InlineCode:
			sb.WriteString(b.textRun(n.Text, st, true, linked))
		case Link:
			relID := b.hyperlinkRelID(n.URL)
			sb.WriteString(`<w:hyperlink r:id="` + relID + `">`)
			sb.WriteString(b.inlineRuns(n.Content, st, true))
			sb.WriteString(`</w:hyperlink>`)
		}
	}
	return sb.String()
}

// textRun emits one <w:r> with run properties derived from the flags.
// Embedded newlines become <w:br/> elements within the run.
func (b *docxBuilder) textRun(text string, st inlineStyle, mono, linked bool) string {
	var rpr strings.Builder
	if linked {
		rpr.WriteString(`<w:rStyle w:val="Hyperlink"/>`)
	}
	if mono {
		font := xmlEscape(b.cfg.CodeBlockFont)
		rpr.WriteString(`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:cs="` + font + `"/>`)
		rpr.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + hexFill(b.cfg.CodeBlockBackground) + `"/>`)
	}
	if st.bold {
		rpr.WriteString(`<w:b/>`)
	}
	if st.italic {
		rpr.WriteString(`<w:i/>`)
	}
	if st.strike {
		rpr.WriteString(`<w:strike/>`)
	}

	var sb strings.Builder
	sb.WriteString("<w:r>")
	if rpr.Len() > 0 {
		sb.WriteString("<w:rPr>" + rpr.String() + "</w:rPr>")
	}
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			sb.WriteString("<w:br/>")
		}
		sb.WriteString(`<w:t xml:space="preserve">` + xmlEscape(part) + `</w:t>`)
	}
	sb.WriteString("</w:r>")
	return sb.String()
}

// wmlParagraph wraps runs in <w:p>, emitting <w:pPr> only when needed.
func wmlParagraph(ppr, runs string) string {
	if ppr == "" {
		return "<w:p>" + runs + "</w:p>"
	}
	return "<w:p><w:pPr>" + ppr + "</w:pPr>" + runs + "</w:p>"
}

// quotePPr returns the blockquote paragraph styling: a left border plus
// indentation.
func quotePPr(quoted bool) string {
	if !quoted {
		return ""
	}
	return `<w:pBdr><w:left w:val="single" w:sz="12" w:space="4" w:color="C0C0C0"/></w:pBdr>` +
		`<w:ind w:left="` + strconv.Itoa(quoteIndentTwips) + `"/>`
}

// hexFill converts a #rgb or #rrggbb color to the 6-digit uppercase hex
// form WordprocessingML shading expects.
func hexFill(color string) string {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = strings.Repeat(string(hex[0]), 2) +
			strings.Repeat(string(hex[1]), 2) +
			strings.Repeat(string(hex[2]), 2)
	}
	return strings.ToUpper(hex)
}

// xmlEscape escapes text for use in XML content and attribute values.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return ""
	}
	return buf.String()
}

// documentXMLHeader opens the main document part.
const documentXMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`

// documentXMLFooter closes the body with US letter page geometry.
const documentXMLFooter = `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr></w:body></w:document>`

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/><Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/><Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/></Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/></Relationships>`

// stylesXML declares the paragraph and character styles the body
// references: Normal, Heading1-6, ListParagraph, and Hyperlink.
const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr><w:rPr><w:b/><w:sz w:val="40"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="200" w:after="100"/></w:pPr><w:rPr><w:b/><w:sz w:val="34"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading4"><w:name w:val="heading 4"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="200" w:after="100"/></w:pPr><w:rPr><w:b/><w:sz w:val="30"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading5"><w:name w:val="heading 5"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="160" w:after="80"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading6"><w:name w:val="heading 6"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="160" w:after="80"/></w:pPr><w:rPr><w:b/><w:sz w:val="24"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/><w:basedOn w:val="Normal"/><w:pPr><w:contextualSpacing/></w:pPr></w:style><w:style w:type="character" w:styleId="Hyperlink"><w:name w:val="Hyperlink"/><w:rPr><w:color w:val="0563C1"/><w:u w:val="single"/></w:rPr></w:style></w:styles>`

// numberingXML declares the bullet and decimal list definitions, nine
// levels deep each.
var numberingXML = buildNumberingXML()

func buildNumberingXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString("\n")
	sb.WriteString(`<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)

	sb.WriteString(`<w:abstractNum w:abstractNumId="0">`)
	for lvl := 0; lvl < 9; lvl++ {
		indent := strconv.Itoa(720 * (lvl + 1))
		sb.WriteString(`<w:lvl w:ilvl="` + strconv.Itoa(lvl) + `">` +
			`<w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/>` +
			`<w:lvlJc w:val="left"/><w:pPr><w:ind w:left="` + indent + `" w:hanging="360"/></w:pPr></w:lvl>`)
	}
	sb.WriteString(`</w:abstractNum>`)

	sb.WriteString(`<w:abstractNum w:abstractNumId="1">`)
	for lvl := 0; lvl < 9; lvl++ {
		indent := strconv.Itoa(720 * (lvl + 1))
		lvlText := "%" + strconv.Itoa(lvl+1) + "."
		sb.WriteString(`<w:lvl w:ilvl="` + strconv.Itoa(lvl) + `">` +
			`<w:start w:val="1"/><w:numFmt w:val="decimal"/><w:lvlText w:val="` + lvlText + `"/>` +
			`<w:lvlJc w:val="left"/><w:pPr><w:ind w:left="` + indent + `" w:hanging="360"/></w:pPr></w:lvl>`)
	}
	sb.WriteString(`</w:abstractNum>`)

	sb.WriteString(`<w:num w:numId="` + strconv.Itoa(bulletNumID) + `"><w:abstractNumId w:val="0"/></w:num>`)
	sb.WriteString(`<w:num w:numId="` + strconv.Itoa(decimalNumID) + `"><w:abstractNumId w:val="1"/></w:num>`)
	sb.WriteString(`</w:numbering>`)
	return sb.String()
}

// buildDocumentRels assembles word/_rels/document.xml.rels: the fixed
// styles and numbering parts followed by the external hyperlinks.
func buildDocumentRels(links []string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString("\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId` + strconv.Itoa(stylesRelID) + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	sb.WriteString(`<Relationship Id="rId` + strconv.Itoa(numberingRelID) + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>`)
	for i, url := range links {
		sb.WriteString(`<Relationship Id="rId` + strconv.Itoa(firstDynamicRel+i) + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="` + xmlEscape(url) + `" TargetMode="External"/>`)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// buildCoreXML assembles docProps/core.xml from front matter metadata.
func buildCoreXML(meta DocumentMeta) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<dc:title>` + xmlEscape(meta.Title) + `</dc:title>` +
		`<dc:creator>` + xmlEscape(meta.Author) + `</dc:creator>` +
		`</cp:coreProperties>`
}

// packDocx zips the OOXML parts into the final package bytes.
func packDocx(bodyXML string, links []string, meta DocumentMeta) ([]byte, error) {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", documentXMLHeader + bodyXML + documentXMLFooter},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/_rels/document.xml.rels", buildDocumentRels(links)},
		{"docProps/core.xml", buildCoreXML(meta)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrRender, part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", ErrRender, part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing package: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
